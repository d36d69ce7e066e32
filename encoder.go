package pixelcomp

// EncoderFormat selects one of the four wire formats.
type EncoderFormat int

const (
	FormatSinglePixel EncoderFormat = iota
	FormatRegion
	FormatRegionWithCompressedAdc
	FormatDelta
)

func (f EncoderFormat) String() string {
	switch f {
	case FormatSinglePixel:
		return "SinglePixel"
	case FormatRegion:
		return "Region"
	case FormatRegionWithCompressedAdc:
		return "RegionWithCompressedAdc"
	case FormatDelta:
		return "Delta"
	}
	return "unknown"
}

// ParseEncoderFormat maps a format name back to its EncoderFormat.
func ParseEncoderFormat(s string) (EncoderFormat, error) {
	for _, f := range []EncoderFormat{FormatSinglePixel, FormatRegion, FormatRegionWithCompressedAdc, FormatDelta} {
		if f.String() == s {
			return f, nil
		}
	}
	return 0, codecErrorf(UnsupportedOption, "encoder format %q is not supported", s)
}

// ChipDataEncoder owns one PackageMaker and presents encode/decode over a
// fixed chip layout. Formats that need trained alphabets load them from a
// dictionary file; the loaded statistics are shared by reference with the
// maker and must outlive it.
type ChipDataEncoder struct {
	chipLayout MultiRegionLayout
	maker      PackageMaker
	source     *Collection
}

// NewChipDataEncoder builds the encoder for a format. dictionaryPath is
// only consulted for the formats that use Huffman alphabets.
func NewChipDataEncoder(format EncoderFormat, chipLayout MultiRegionLayout, readoutUnitLayout RegionLayout,
	maxAdc int, ordering Ordering, dictionaryPath string) (*ChipDataEncoder, error) {
	e := &ChipDataEncoder{chipLayout: chipLayout}
	nBitsPerAdc := BitsPerValue(maxAdc)
	var err error
	switch format {
	case FormatSinglePixel:
		e.maker = NewSinglePixelMaker(nBitsPerAdc)
	case FormatRegion:
		if e.maker, err = NewBlockMaker(nil, readoutUnitLayout, nBitsPerAdc, false); err != nil {
			return nil, err
		}
	case FormatRegionWithCompressedAdc, FormatDelta:
		if e.source, err = LoadCollection(dictionaryPath); err != nil {
			return nil, err
		}
		if format == FormatRegionWithCompressedAdc {
			e.maker, err = NewBlockMaker(e.source, readoutUnitLayout, nBitsPerAdc, true)
		} else {
			e.maker, err = NewDeltaMaker(e.source, readoutUnitLayout, DeltaModeCombined, ordering)
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, codecErrorf(UnsupportedOption, "encoder format is not supported")
	}
	return e, nil
}

// MakerName returns the wire-format name of the owned maker.
func (e *ChipDataEncoder) MakerName() string { return e.maker.Name() }

// Encode turns a chip into a package, re-partitioning the chip first when
// its layout differs from the encoder's.
func (e *ChipDataEncoder) Encode(chip *Chip) (*Package, error) {
	if !chip.Layout().Equal(e.chipLayout) {
		split, err := SplitRegion(chip.Plane(), e.chipLayout.NRegionRows, e.chipLayout.NRegionColumns)
		if err != nil {
			return nil, err
		}
		chip = split
	}
	return e.maker.Make(chip)
}

// Decode reconstructs a chip from a package.
func (e *ChipDataEncoder) Decode(pkg *Package) (*Chip, error) {
	return e.maker.Read(pkg, e.chipLayout)
}
