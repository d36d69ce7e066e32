package pixelcomp

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// DictionaryBuilder drives the three alphabet producers across a corpus of
// chips and persists the resulting dictionaries. Training is expected to
// be single-threaded per builder; SaveDictionaries serialises writers.
type DictionaryBuilder struct {
	mu              sync.Mutex
	chipLayout      MultiRegionLayout
	ordering        Ordering
	readoutUnit     RegionLayout
	maxAlphabetSize int

	allAdc         *Producer
	activeAdc      *Producer
	deltaRowColumn *Producer
}

func NewDictionaryBuilder(chipLayout MultiRegionLayout, ordering Ordering, readoutUnit RegionLayout,
	maxAdc, maxAlphabetSize int) *DictionaryBuilder {
	return &DictionaryBuilder{
		chipLayout:      chipLayout,
		ordering:        ordering,
		readoutUnit:     readoutUnit,
		maxAlphabetSize: maxAlphabetSize,
		allAdc:          NewRangeProducer(AdcAlphabet.Name(), 0, maxAdc),
		activeAdc:       NewRangeProducer(ActiveAdcAlphabet.Name(), 1, maxAdc),
		deltaRowColumn:  NewRangeProducer(DeltaRowColumnAlphabet.Name(), 0, chipLayout.Region.NumPixels()),
	}
}

// AddChip updates the three alphabets with one chip, re-partitioning it
// first when its layout differs from the builder's.
func (b *DictionaryBuilder) AddChip(chip *Chip) error {
	if !chip.Layout().Equal(b.chipLayout) {
		split, err := SplitRegion(chip.Plane(), b.chipLayout.NRegionRows, b.chipLayout.NRegionColumns)
		if err != nil {
			return err
		}
		chip = split
	}

	for macroRegionID := 0; macroRegionID < b.chipLayout.NumRegions(); macroRegionID++ {
		if !chip.IsRegionActive(macroRegionID) {
			continue
		}
		region, err := chip.Region(macroRegionID)
		if err != nil {
			return err
		}
		area, err := SubdivideRegion(region, b.readoutUnit)
		if err != nil {
			return err
		}
		ordered, err := area.OrderedPixels(b.ordering)
		if err != nil {
			return err
		}
		if err := b.processOrderedPixels(ordered); err != nil {
			return err
		}
		b.processRegionBlocks(area)
	}
	return nil
}

// processOrderedPixels feeds the active-ADC and combined-delta alphabets
// with one macro-region's ordered pixel walk.
func (b *DictionaryBuilder) processOrderedPixels(ordered []PixelAdc) error {
	layout := b.chipLayout.Region
	var previous Pixel
	for _, entry := range ordered {
		deltaRow := (int(entry.Pixel.Row) + layout.NRows - int(previous.Row)) % layout.NRows
		deltaColumn := (int(entry.Pixel.Column) + layout.NColumns - int(previous.Column)) % layout.NColumns
		deltaRowColumn, err := layout.PixelID(Pixel{Row: int16(deltaRow), Column: int16(deltaColumn)})
		if err != nil {
			return err
		}
		b.activeAdc.AddCount(int(entry.Adc))
		b.deltaRowColumn.AddCount(deltaRowColumn)
		previous = entry.Pixel
	}
	return nil
}

// processRegionBlocks feeds the all-ADC alphabet with every cell of every
// active readout unit, inactive cells counting as zero.
func (b *DictionaryBuilder) processRegionBlocks(area *Chip) {
	for regionID := 0; regionID < area.Layout().NumRegions(); regionID++ {
		if !area.IsRegionActive(regionID) {
			continue
		}
		region, err := area.Region(regionID)
		if err != nil {
			continue
		}
		layout := region.Layout()
		for row := 0; row < layout.NRows; row++ {
			for column := 0; column < layout.NColumns; column++ {
				b.allAdc.AddCount(int(region.AdcAt(row, column)))
			}
		}
	}
}

// WriteDictionaries emits the three alphabet blocks; only the delta
// alphabet is reduced to the configured maximum size.
func (b *DictionaryBuilder) WriteDictionaries(w io.Writer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writeStatistics(b.allAdc, w, false); err != nil {
		return err
	}
	if err := b.writeStatistics(b.activeAdc, w, false); err != nil {
		return err
	}
	return b.writeStatistics(b.deltaRowColumn, w, true)
}

// SaveDictionaries writes the dictionary file at path.
func (b *DictionaryBuilder) SaveDictionaries(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "saving dictionaries into %q", path)
	}
	if err := b.WriteDictionaries(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "saving dictionaries into %q", path)
	}
	return errors.Wrapf(f.Close(), "saving dictionaries into %q", path)
}

func (b *DictionaryBuilder) writeStatistics(producer *Producer, w io.Writer, reduce bool) error {
	if reduce && producer.NumLetters() > b.maxAlphabetSize {
		reduced, err := producer.Reduce(b.maxAlphabetSize, producer.Name(), SpecialLetter)
		if err != nil {
			return err
		}
		producer = reduced
	}
	stat, err := producer.Produce()
	if err != nil {
		return err
	}
	if err := stat.WriteTo(w); err != nil {
		return err
	}
	// Blank line between blocks.
	_, err = fmt.Fprintln(w)
	return err
}
