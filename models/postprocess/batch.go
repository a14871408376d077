package postprocess

import (
	"context"
	"sync"
)

// Input is one detector output together with the size of the image it came from.
type Input struct {
	Name   string
	Tensor *RawTensor
	Width  int
	Height int
}

// Output is the decoding result for the Input with the same index.
type Output struct {
	Name       string
	Detections []Detection
	Err        error
}

// DecodeAll decodes independent detector outputs on a bounded worker pool.
// A failing item never affects the others. Items not started before ctx is
// cancelled carry ctx.Err().
//
// Arguments:
//   - ctx: Cancels dispatch of remaining items.
//   - d: The decoder shared by all workers.
//   - inputs: The outputs to decode.
//   - workers: The number of goroutines; values below 1 use one.
//
// Returns:
//   - []Output: One entry per input, in input order.
func DecodeAll(ctx context.Context, d *Decoder, inputs []Input, workers int) []Output {
	outputs := make([]Output, len(inputs))
	if len(inputs) == 0 {
		return outputs
	}
	workers = max(1, min(workers, len(inputs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				in := inputs[i]
				dets, err := d.Decode(in.Tensor, in.Width, in.Height)
				outputs[i] = Output{Name: in.Name, Detections: dets, Err: err}
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(inputs); i++ {
		outputs[i] = Output{Name: inputs[i].Name, Err: ctx.Err()}
	}
	return outputs
}
