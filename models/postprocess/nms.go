package postprocess

import (
	"sort"

	"github.com/nvr-ai/oceanyolo/images"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which the lower scoring box is
	// suppressed. Zero disables suppression.
	IoUThreshold float64 `koanf:"iou_threshold" json:"iou_threshold"`
	// ClassAware suppresses only within the same class.
	ClassAware bool `koanf:"class_aware" json:"class_aware"`
}

// Enabled reports whether suppression should run.
func (c NMSConfig) Enabled() bool {
	return c.IoUThreshold > 0
}

// ApplyGreedyNMS performs greedy Non-Maximum Suppression. Detections are
// visited by descending score; survivors are returned in their input order.
//
// Arguments:
//   - detections: Detections in input row order.
//   - config: NMS configuration.
//
// Returns:
//   - Filtered slice of detections. If no detections are provided, returns nil.
func ApplyGreedyNMS(detections []Result, config NMSConfig) []Result {
	n := len(detections)
	if n == 0 {
		return nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Score > detections[order[b]].Score
	})

	used := make([]bool, n)
	for a, i := range order {
		if used[i] {
			continue
		}
		anchor := detections[i]

		for _, j := range order[a+1:] {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.Class != detections[j].Class {
				continue
			}
			// Suppress if IoU exceeds threshold
			if images.CalculateIoU(anchor.Box(), detections[j].Box()) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	filtered := make([]Result, 0, n)
	for i, d := range detections {
		if !used[i] {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
