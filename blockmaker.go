package pixelcomp

// BlockMaker partitions each active macro-region into readout units and
// emits one unit per macro-region per readout cycle, round-robin, until
// every queue is drained. Cells are written in row-major unit order, ADC=0
// standing for an inactive cell, either as raw bits or Huffman-encoded
// against the all-ADC alphabet.
type BlockMaker struct {
	adcStats    *Statistics // nil selects raw ADC bits
	readoutUnit RegionLayout
	nBitsPerAdc int
}

// NewBlockMaker builds the Region ("block_raw") or RegionWithCompressedAdc
// ("block_encoded") codec. With encodeAdc set, source must hold the
// all-ADC alphabet.
func NewBlockMaker(source *Collection, readoutUnit RegionLayout, nBitsPerAdc int, encodeAdc bool) (*BlockMaker, error) {
	m := &BlockMaker{readoutUnit: readoutUnit, nBitsPerAdc: nBitsPerAdc}
	if encodeAdc {
		stats, err := source.ByType(AdcAlphabet)
		if err != nil {
			return nil, err
		}
		m.adcStats = stats
	}
	return m, nil
}

func (m *BlockMaker) Name() string {
	if m.adcStats != nil {
		return "block_encoded"
	}
	return "block_raw"
}

// FullRegionID packs a readout-unit id and its macro-region id into the
// single address written on the wire.
func FullRegionID(macroRegionID, regionID, nMacroRegions int) int {
	return regionID*nMacroRegions + macroRegionID
}

// SplitFullRegionID is the inverse of FullRegionID.
func SplitFullRegionID(fullRegionID, nMacroRegions int) (macroRegionID, regionID int) {
	macroRegionID = fullRegionID % nMacroRegions
	regionID = (fullRegionID - macroRegionID) / nMacroRegions
	return macroRegionID, regionID
}

type readoutRegion struct {
	id     int
	region *PixelRegion
}

type macroRegionQueue struct {
	id      int
	regions []readoutRegion
}

func (m *BlockMaker) Make(chip *Chip) (*Package, error) {
	multi := chip.Layout()
	nMacroRegions := multi.NumRegions()
	nRegions := 0
	var queues []macroRegionQueue

	for macroRegionID := 0; macroRegionID < nMacroRegions; macroRegionID++ {
		if !chip.IsRegionActive(macroRegionID) {
			continue
		}
		region, err := chip.Region(macroRegionID)
		if err != nil {
			return nil, err
		}
		area, err := SubdivideRegion(region, m.readoutUnit)
		if err != nil {
			return nil, err
		}
		nRegions = area.Layout().NumRegions()
		queue := macroRegionQueue{id: macroRegionID}
		for regionID := 0; regionID < nRegions; regionID++ {
			if !area.IsRegionActive(regionID) {
				continue
			}
			unit, err := area.Region(regionID)
			if err != nil {
				return nil, err
			}
			queue.regions = append(queue.regions, readoutRegion{id: regionID, region: unit})
		}
		if len(queue.regions) != 0 {
			queues = append(queues, queue)
		}
	}

	nBitsPerAddress := BitsPerValue(nRegions * nMacroRegions)
	pkg := NewPackage()
	for len(queues) != 0 {
		remaining := queues[:0]
		for i := range queues {
			next := queues[i].regions[0]
			queues[i].regions = queues[i].regions[1:]
			if err := m.writeRegion(pkg, next, queues[i].id, nMacroRegions, nBitsPerAddress); err != nil {
				return nil, err
			}
			if len(queues[i].regions) != 0 {
				remaining = append(remaining, queues[i])
			}
		}
		queues = remaining
		pkg.NextReadoutCycle()
	}
	return pkg, nil
}

func (m *BlockMaker) writeRegion(pkg *Package, next readoutRegion, macroRegionID, nMacroRegions, nBitsPerAddress int) error {
	fullRegionID := FullRegionID(macroRegionID, next.id, nMacroRegions)
	if err := pkg.Write(uint64(fullRegionID), nBitsPerAddress); err != nil {
		return err
	}
	for row := 0; row < m.readoutUnit.NRows; row++ {
		for column := 0; column < m.readoutUnit.NColumns; column++ {
			adc := next.region.AdcAt(row, column)
			if m.adcStats != nil {
				if err := m.adcStats.EncodeLetter(int(adc), pkg); err != nil {
					return err
				}
			} else if err := pkg.Write(uint64(adc), m.nBitsPerAdc); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *BlockMaker) Read(pkg *Package, multi MultiRegionLayout) (*Chip, error) {
	chip := NewChip(multi)
	nMacroRegions := multi.NumRegions()
	layout, err := NewMultiRegionLayoutWithRegion(multi.Region.NRows, multi.Region.NColumns, m.readoutUnit)
	if err != nil {
		return nil, err
	}
	nRegions := layout.NumRegions()
	nBitsPerAddress := BitsPerValue(nRegions * nMacroRegions)

	for iter := pkg.Iter(); !iter.AtEnd(); {
		fullRegionID, err := iter.Read(nBitsPerAddress, false)
		if err != nil {
			return nil, err
		}
		macroRegionID, regionID := SplitFullRegionID(int(fullRegionID), nMacroRegions)

		for row := 0; row < m.readoutUnit.NRows; row++ {
			for column := 0; column < m.readoutUnit.NColumns; column++ {
				var adc Adc
				if m.adcStats != nil {
					letter, err := m.adcStats.DecodeLetter(iter)
					if err != nil {
						return nil, err
					}
					adc = Adc(letter)
				} else {
					raw, err := iter.Read(m.nBitsPerAdc, false)
					if err != nil {
						return nil, err
					}
					adc = Adc(raw)
				}
				if adc == 0 {
					continue
				}
				readoutPixel := Pixel{Row: int16(row), Column: int16(column)}
				macroRegionPixel := layout.FromRegionPixel(regionID, readoutPixel)
				chipPixel := multi.FromRegionPixel(macroRegionID, macroRegionPixel)
				if err := chip.AddPixel(chipPixel, adc); err != nil {
					return nil, err
				}
			}
		}
	}
	return chip, nil
}
