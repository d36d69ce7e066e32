package pixelcomp

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// ReadChips parses a chip corpus in the text format used by the driver
// commands: one "row column adc" triple per line, chips separated by blank
// lines, '#' starting a comment. Pixels outside the layout are dropped, as
// the input boundary requires of callers.
func ReadChips(r io.Reader, layout MultiRegionLayout) ([]*Chip, error) {
	var chips []*Chip
	chip := NewChip(layout)
	flush := func() {
		if chip.HasActivePixels() {
			chips = append(chips, chip)
			chip = NewChip(layout)
		}
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		var row, column, adc int
		if _, err := fmt.Sscan(line, &row, &column, &adc); err != nil {
			return nil, errors.Wrapf(err, "corpus line %d", lineNo)
		}
		pixel := Pixel{Row: int16(row), Column: int16(column)}
		if !layout.Contains(pixel) {
			continue
		}
		if err := chip.AddPixel(pixel, Adc(adc)); err != nil {
			return nil, errors.Wrapf(err, "corpus line %d", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading corpus")
	}
	flush()
	return chips, nil
}

// WriteChips emits a corpus in the same text format.
func WriteChips(w io.Writer, chips []*Chip) error {
	for i, chip := range chips {
		if i != 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		for _, entry := range chip.Pixels() {
			if _, err := fmt.Fprintf(w, "%d %d %d\n", entry.Pixel.Row, entry.Pixel.Column, entry.Adc); err != nil {
				return err
			}
		}
	}
	return nil
}
