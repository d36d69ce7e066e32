package pixelcomp

import "math"

// DeltaMode selects how pixel deltas are alphabetised.
type DeltaMode int

const (
	// DeltaModeCombined encodes (delta row, delta column) as a single
	// pixel-id letter of the region layout.
	DeltaModeCombined DeltaMode = iota
	// DeltaModeSeparate encodes delta row and delta column against their
	// own alphabets.
	DeltaModeSeparate
)

// BitsPerNPixels is the width of each per-macro-region pixel count in the
// delta trailer.
const BitsPerNPixels = 10

// SpecialLetter flags a letter absent from a reduced alphabet; the raw
// absolute value follows it on the wire.
const SpecialLetter = -1

// DeltaMaker interleaves the macro-regions pixel by pixel, sending each
// pixel as a Huffman-coded delta from the previous pixel of the same
// macro-region plus its Huffman-coded ADC.
type DeltaMaker struct {
	readoutUnit RegionLayout
	mode        DeltaMode
	ordering    Ordering

	adcStats            *Statistics
	deltaRowStats       *Statistics
	deltaColumnStats    *Statistics
	deltaRowColumnStats *Statistics
}

// NewDeltaMaker builds the delta codec. The source must hold the
// active-ADC alphabet plus the delta alphabets of the chosen mode.
func NewDeltaMaker(source *Collection, readoutUnit RegionLayout, mode DeltaMode, ordering Ordering) (*DeltaMaker, error) {
	adcStats, err := source.ByType(ActiveAdcAlphabet)
	if err != nil {
		return nil, err
	}
	m := &DeltaMaker{readoutUnit: readoutUnit, mode: mode, ordering: ordering, adcStats: adcStats}
	switch mode {
	case DeltaModeSeparate:
		if m.deltaRowStats, err = source.ByType(DeltaRowAlphabet); err != nil {
			return nil, err
		}
		if m.deltaColumnStats, err = source.ByType(DeltaColumnAlphabet); err != nil {
			return nil, err
		}
	case DeltaModeCombined:
		if m.deltaRowColumnStats, err = source.ByType(DeltaRowColumnAlphabet); err != nil {
			return nil, err
		}
	default:
		return nil, codecErrorf(UnsupportedOption, "unsupported delta package maker mode %d", mode)
	}
	return m, nil
}

func (m *DeltaMaker) Name() string {
	if m.mode == DeltaModeSeparate {
		return "separate_delta_huffman"
	}
	return "combined_delta_huffman"
}

// regionIterator walks one macro-region's ordered pixel list.
type regionIterator struct {
	pixels []PixelAdc
	index  int
}

func (it *regionIterator) size() int        { return len(it.pixels) }
func (it *regionIterator) hasCurrent() bool { return it.index < len(it.pixels) }
func (it *regionIterator) current() PixelAdc {
	return it.pixels[it.index]
}
func (it *regionIterator) previous() PixelAdc {
	if it.index == 0 {
		return PixelAdc{}
	}
	return it.pixels[it.index-1]
}
func (it *regionIterator) moveNext() { it.index++ }

func (m *DeltaMaker) Make(chip *Chip) (*Package, error) {
	multi := chip.Layout()
	layout := multi.Region
	nMacroRegions := multi.NumRegions()
	iterators := make([]*regionIterator, 0, nMacroRegions)
	maxSize := 0

	for macroRegionID := 0; macroRegionID < nMacroRegions; macroRegionID++ {
		var pixels []PixelAdc
		if chip.IsRegionActive(macroRegionID) {
			region, err := chip.Region(macroRegionID)
			if err != nil {
				return nil, err
			}
			area, err := SubdivideRegion(region, m.readoutUnit)
			if err != nil {
				return nil, err
			}
			if pixels, err = area.OrderedPixels(m.ordering); err != nil {
				return nil, err
			}
		}
		iterators = append(iterators, &regionIterator{pixels: pixels})
		if len(pixels) > maxSize {
			maxSize = len(pixels)
		}
	}

	pkg := NewPackage()
	for n := 0; n < maxSize; n++ {
		for _, it := range iterators {
			if !it.hasCurrent() {
				continue
			}
			entry := it.current()
			if err := m.encodePixel(pkg, layout, entry.Pixel, it.previous().Pixel); err != nil {
				return nil, err
			}
			if err := m.adcStats.EncodeLetter(int(entry.Adc), pkg); err != nil {
				return nil, err
			}
			it.moveNext()
		}
		if (n+1)%2 == 0 || n+1 == maxSize {
			pkg.NextReadoutCycle()
		}
	}

	if nMacroRegions > 1 {
		for _, it := range iterators {
			if err := pkg.Write(uint64(it.size()), BitsPerNPixels); err != nil {
				return nil, err
			}
		}
		pkg.NextReadoutCycle()
	}
	return pkg, nil
}

// encodeLetter emits the letter when the alphabet knows it, or the special
// letter followed by the raw absolute value.
func encodeLetter(pkg *Package, stats *Statistics, letter, absValue, bitsPerRawValue int) error {
	if stats.Contains(letter) {
		return stats.EncodeLetter(letter, pkg)
	}
	if err := stats.EncodeLetter(SpecialLetter, pkg); err != nil {
		return err
	}
	return pkg.Write(uint64(absValue), bitsPerRawValue)
}

// decodeLetter mirrors encodeLetter. It reports whether a delta letter
// (rather than a raw absolute value) was read.
func decodeLetter(iter *Iterator, stats *Statistics, bitsPerRawValue int) (letter, absValue int, isDelta bool, err error) {
	letter, err = stats.DecodeLetter(iter)
	if err != nil {
		return 0, 0, false, err
	}
	if letter != SpecialLetter {
		return letter, 0, true, nil
	}
	raw, err := iter.Read(bitsPerRawValue, false)
	if err != nil {
		return 0, 0, false, err
	}
	return letter, int(raw), false, nil
}

func (m *DeltaMaker) encodePixel(pkg *Package, layout RegionLayout, pixel, previous Pixel) error {
	deltaRow := (int(pixel.Row) + layout.NRows - int(previous.Row)) % layout.NRows
	deltaColumn := (int(pixel.Column) + layout.NColumns - int(previous.Column)) % layout.NColumns
	if m.mode == DeltaModeSeparate {
		if err := encodeLetter(pkg, m.deltaRowStats, deltaRow, int(pixel.Row), layout.BitsPerRow()); err != nil {
			return err
		}
		return encodeLetter(pkg, m.deltaColumnStats, deltaColumn, int(pixel.Column), layout.BitsPerColumn())
	}
	deltaRowColumn, err := layout.PixelID(Pixel{Row: int16(deltaRow), Column: int16(deltaColumn)})
	if err != nil {
		return err
	}
	pixelID, err := layout.PixelID(pixel)
	if err != nil {
		return err
	}
	return encodeLetter(pkg, m.deltaRowColumnStats, deltaRowColumn, pixelID, layout.BitsPerID())
}

func (m *DeltaMaker) decodePixel(iter *Iterator, layout RegionLayout, previous Pixel) (Pixel, error) {
	if m.mode == DeltaModeSeparate {
		rowLetter, absRow, hasDeltaRow, err := decodeLetter(iter, m.deltaRowStats, layout.BitsPerRow())
		if err != nil {
			return Pixel{}, err
		}
		columnLetter, absColumn, hasDeltaColumn, err := decodeLetter(iter, m.deltaColumnStats, layout.BitsPerColumn())
		if err != nil {
			return Pixel{}, err
		}
		var pixel Pixel
		if hasDeltaRow {
			pixel.Row = int16((int(previous.Row) + rowLetter) % layout.NRows)
		} else {
			pixel.Row = int16(absRow)
		}
		if hasDeltaColumn {
			pixel.Column = int16((int(previous.Column) + columnLetter) % layout.NColumns)
		} else {
			pixel.Column = int16(absColumn)
		}
		return pixel, nil
	}

	letter, absPixelID, isDelta, err := decodeLetter(iter, m.deltaRowColumnStats, layout.BitsPerID())
	if err != nil {
		return Pixel{}, err
	}
	if !isDelta {
		return layout.PixelAt(absPixelID)
	}
	delta, err := layout.PixelAt(letter)
	if err != nil {
		return Pixel{}, err
	}
	return Pixel{
		Row:    int16((int(previous.Row) + int(delta.Row)) % layout.NRows),
		Column: int16((int(previous.Column) + int(delta.Column)) % layout.NColumns),
	}, nil
}

func (m *DeltaMaker) Read(pkg *Package, multi MultiRegionLayout) (*Chip, error) {
	chip := NewChip(multi)
	layout := multi.Region
	nMacroRegions := multi.NumRegions()
	previous := make([]Pixel, nMacroRegions)
	nPixels := make([]int, nMacroRegions)
	maxNPixels := 0

	if nMacroRegions > 1 {
		trailer, err := pkg.IterAt(pkg.SizeBits() - BitsPerNPixels*nMacroRegions)
		if err != nil {
			return nil, err
		}
		for k := 0; k < nMacroRegions; k++ {
			n, err := trailer.Read(BitsPerNPixels, false)
			if err != nil {
				return nil, err
			}
			nPixels[k] = int(n)
			if nPixels[k] > maxNPixels {
				maxNPixels = nPixels[k]
			}
		}
	} else {
		maxNPixels = math.MaxInt
		nPixels[0] = math.MaxInt
	}

	iter := pkg.Iter()
	for n := 0; n < maxNPixels && !iter.AtEnd(); n++ {
		for k := 0; k < nMacroRegions; k++ {
			if nPixels[k] <= n {
				continue
			}
			regionPixel, err := m.decodePixel(iter, layout, previous[k])
			if err != nil {
				return nil, err
			}
			adcLetter, err := m.adcStats.DecodeLetter(iter)
			if err != nil {
				return nil, err
			}
			pixel := multi.FromRegionPixel(k, regionPixel)
			if err := chip.AddPixel(pixel, Adc(adcLetter)); err != nil {
				return nil, err
			}
			previous[k] = regionPixel
		}
	}
	return chip, nil
}
