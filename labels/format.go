package labels

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedLabel is returned when a label file line does not parse.
var ErrMalformedLabel = errors.New("malformed label")

// fieldsPerLine is the YOLO label layout: class cx cy w h.
const fieldsPerLine = 5

// Parse reads a YOLO label file: one box per line, `class cx cy w h`, with
// normalized coordinates. Blank lines are ignored and an empty input yields no
// boxes.
//
// Arguments:
//   - r: The label file contents.
//
// Returns:
//   - []Box: The boxes in Normalized space, in file order.
//   - error: ErrMalformedLabel (wrapped with the line number) on the first bad line.
func Parse(r io.Reader) ([]Box, error) {
	var boxes []Box

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		box, err := parseLine(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		boxes = append(boxes, box)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read labels")
	}

	return boxes, nil
}

// ParseBytes is Parse over an in-memory label file.
func ParseBytes(data []byte) ([]Box, error) {
	return Parse(bytes.NewReader(data))
}

func parseLine(text string) (Box, error) {
	fields := strings.Fields(text)
	if len(fields) != fieldsPerLine {
		return Box{}, errors.Wrapf(ErrMalformedLabel, "expected %d fields, got %d", fieldsPerLine, len(fields))
	}

	classID, err := parseClassID(fields[0])
	if err != nil {
		return Box{}, err
	}

	var coords [4]float64
	for i, field := range fields[1:] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Box{}, errors.Wrapf(ErrMalformedLabel, "field %d: %q is not a number", i+2, field)
		}
		coords[i] = v
	}

	box := Box{ClassID: classID, CX: coords[0], CY: coords[1], W: coords[2], H: coords[3], Space: Normalized}
	if err := box.Validate(); err != nil {
		return Box{}, errors.Wrap(ErrMalformedLabel, err.Error())
	}
	return box, nil
}

// parseClassID accepts integers and integral floats such as "1.0", which some
// exporters write.
func parseClassID(field string) (int, error) {
	if id, err := strconv.Atoi(field); err == nil {
		if id < 0 {
			return 0, errors.Wrapf(ErrMalformedLabel, "negative class id %d", id)
		}
		return id, nil
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, errors.Wrapf(ErrMalformedLabel, "class id %q is not a non-negative integer", field)
	}
	return int(v), nil
}

// Write encodes boxes as a YOLO label file.
//
// Arguments:
//   - w: The destination.
//   - boxes: Normalized boxes to write.
//
// Returns:
//   - error: ErrSpaceMismatch for pixel boxes, or the underlying write error.
func Write(w io.Writer, boxes []Box) error {
	bw := bufio.NewWriter(w)
	for _, b := range boxes {
		if b.Space != Normalized {
			return errors.Wrapf(ErrSpaceMismatch, "cannot write %s box to a label file", b.Space)
		}
		line := strconv.Itoa(b.ClassID) + " " +
			formatCoord(b.CX) + " " +
			formatCoord(b.CY) + " " +
			formatCoord(b.W) + " " +
			formatCoord(b.H) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return errors.Wrap(err, "failed to write labels")
		}
	}
	return bw.Flush()
}

// Format is Write into a new byte slice. An empty box list yields an empty
// file, which is a valid background example.
func Format(boxes []Box) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, boxes); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
