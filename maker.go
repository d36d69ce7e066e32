package pixelcomp

// PackageMaker encodes a chip into a bit-packed package and decodes a
// package back into a chip of the given layout.
type PackageMaker interface {
	// Name identifies the wire format.
	Name() string
	Make(chip *Chip) (*Package, error)
	Read(pkg *Package, layout MultiRegionLayout) (*Chip, error)
}

// SinglePixelMaker writes every pixel as a (pixel id, adc) pair in
// row-major pixel order.
type SinglePixelMaker struct {
	nBitsPerAdc int

	// MarkerEvery is the readout-cycle cadence in pixels. Zero selects the
	// number of macro-regions of the encoded chip's layout.
	MarkerEvery int
}

func NewSinglePixelMaker(nBitsPerAdc int) *SinglePixelMaker {
	return &SinglePixelMaker{nBitsPerAdc: nBitsPerAdc}
}

func (m *SinglePixelMaker) Name() string { return "default" }

func (m *SinglePixelMaker) Make(chip *Chip) (*Package, error) {
	layout := chip.Layout()
	nBitsPerPixelID := layout.BitsPerID()
	cadence := m.MarkerEvery
	if cadence == 0 {
		cadence = layout.NumRegions()
	}

	pkg := NewPackage()
	pixels := chip.Pixels()
	for n, entry := range pixels {
		pixelID, err := layout.PixelID(entry.Pixel)
		if err != nil {
			return nil, err
		}
		if err := pkg.Write(uint64(pixelID), nBitsPerPixelID); err != nil {
			return nil, err
		}
		if err := pkg.Write(uint64(entry.Adc), m.nBitsPerAdc); err != nil {
			return nil, err
		}
		if (n+1)%cadence == 0 || n+1 == len(pixels) {
			pkg.NextReadoutCycle()
		}
	}
	return pkg, nil
}

func (m *SinglePixelMaker) Read(pkg *Package, layout MultiRegionLayout) (*Chip, error) {
	nBitsPerPixelID := layout.BitsPerID()
	chip := NewChip(layout)
	for iter := pkg.Iter(); !iter.AtEnd(); {
		pixelID, err := iter.Read(nBitsPerPixelID, false)
		if err != nil {
			return nil, err
		}
		adc, err := iter.Read(m.nBitsPerAdc, false)
		if err != nil {
			return nil, err
		}
		pixel, err := layout.PixelAt(int(pixelID))
		if err != nil {
			return nil, err
		}
		if err := chip.AddPixel(pixel, Adc(adc)); err != nil {
			return nil, err
		}
	}
	return chip, nil
}
