package pixelcomp

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

// PixelRegion is a rectangular tile holding a pixel -> ADC mapping.
type PixelRegion struct {
	layout RegionLayout
	pixels map[Pixel]Adc
}

func NewPixelRegion(layout RegionLayout) *PixelRegion {
	return &PixelRegion{layout: layout, pixels: make(map[Pixel]Adc)}
}

func (r *PixelRegion) Layout() RegionLayout { return r.layout }
func (r *PixelRegion) NumRows() int         { return r.layout.NRows }
func (r *PixelRegion) NumColumns() int      { return r.layout.NColumns }
func (r *PixelRegion) NumPixels() int       { return len(r.pixels) }
func (r *PixelRegion) HasActivePixels() bool {
	return len(r.pixels) != 0
}

// AddPixel records an ADC sample. The pixel must lie inside the tile and
// must not be present yet.
func (r *PixelRegion) AddPixel(p Pixel, adc Adc) error {
	if err := r.layout.CheckPixel(p); err != nil {
		return err
	}
	if _, ok := r.pixels[p]; ok {
		return codecErrorf(DuplicatePixel, "pixel %v is already present", p)
	}
	r.pixels[p] = adc
	return nil
}

// Adc returns the sample at p, or 0 when the pixel is inactive.
func (r *PixelRegion) Adc(p Pixel) Adc { return r.pixels[p] }

// AdcAt is Adc for integer coordinates.
func (r *PixelRegion) AdcAt(row, column int) Adc {
	return r.pixels[Pixel{Row: int16(row), Column: int16(column)}]
}

// Pixels returns all (pixel, adc) pairs in row-major pixel order.
func (r *PixelRegion) Pixels() []PixelAdc {
	result := make([]PixelAdc, 0, len(r.pixels))
	for p, adc := range r.pixels {
		result = append(result, PixelAdc{Pixel: p, Adc: adc})
	}
	slices.SortFunc(result, func(a, b PixelAdc) int { return a.Pixel.Compare(b.Pixel) })
	return result
}

// OrderedPixels returns the pixels under the requested traversal order.
// A plain region supports ByRow and ByColumn.
func (r *PixelRegion) OrderedPixels(ordering Ordering) ([]PixelAdc, error) {
	result := r.Pixels()
	switch ordering {
	case ByRow:
		// Pixels is already row-major.
	case ByColumn:
		slices.SortFunc(result, func(a, b PixelAdc) int {
			if a.Pixel.Column != b.Pixel.Column {
				return int(a.Pixel.Column) - int(b.Pixel.Column)
			}
			return int(a.Pixel.Row) - int(b.Pixel.Row)
		})
	default:
		return nil, codecErrorf(UnsupportedOption, "unsupported ordering %d", ordering)
	}
	return result, nil
}

// HasSamePixels reports whether both regions hold the same (pixel, adc)
// set. When w is non-nil a pixel-by-pixel dump is written to it.
func (r *PixelRegion) HasSamePixels(other *PixelRegion, w io.Writer) bool {
	if w != nil {
		fmt.Fprintf(w, "this vs. other\nsize: %d - %d\n", len(r.pixels), len(other.pixels))
	}
	if len(r.pixels) != len(other.pixels) {
		return false
	}
	these, those := r.Pixels(), other.Pixels()
	for i := range these {
		if w != nil {
			fmt.Fprintf(w, "this pixel: %v adc = %d\nother pixel: %v adc = %d.\n",
				these[i].Pixel, these[i].Adc, those[i].Pixel, those[i].Adc)
		}
		if these[i] != those[i] {
			return false
		}
	}
	return true
}

func (r *PixelRegion) clonePixels() map[Pixel]Adc {
	pixels := make(map[Pixel]Adc, len(r.pixels))
	for p, adc := range r.pixels {
		pixels[p] = adc
	}
	return pixels
}

// Chip is a pixel plane subdivided into macro-regions. Region slots are
// allocated lazily: a slot stays nil until its first pixel arrives, and
// every pixel appears both in the outer map and in its region's map.
type Chip struct {
	outer   PixelRegion
	layout  MultiRegionLayout
	regions []*PixelRegion
}

func NewChip(layout MultiRegionLayout) *Chip {
	c := &Chip{
		outer:  PixelRegion{layout: layout.RegionLayout, pixels: make(map[Pixel]Adc)},
		layout: layout,
	}
	if layout.NumRegions() > 1 {
		c.regions = make([]*PixelRegion, layout.NumRegions())
	}
	return c
}

// SplitRegion re-materializes a pixel region as a chip subdivided into an
// nRegionRows x nRegionColumns grid. The pixel set is preserved verbatim.
func SplitRegion(original *PixelRegion, nRegionRows, nRegionColumns int) (*Chip, error) {
	layout, err := NewMultiRegionLayout(original.layout.NRows, original.layout.NColumns, nRegionRows, nRegionColumns)
	if err != nil {
		return nil, err
	}
	return chipFromRegion(original, layout)
}

// SubdivideRegion re-materializes a pixel region as a chip subdivided into
// tiles of the given shape.
func SubdivideRegion(original *PixelRegion, tile RegionLayout) (*Chip, error) {
	layout, err := NewMultiRegionLayoutWithRegion(original.layout.NRows, original.layout.NColumns, tile)
	if err != nil {
		return nil, err
	}
	return chipFromRegion(original, layout)
}

func chipFromRegion(original *PixelRegion, layout MultiRegionLayout) (*Chip, error) {
	c := &Chip{
		outer:  PixelRegion{layout: layout.RegionLayout, pixels: original.clonePixels()},
		layout: layout,
	}
	if layout.NumRegions() > 1 {
		c.regions = make([]*PixelRegion, layout.NumRegions())
		for p, adc := range c.outer.pixels {
			if err := c.addToRegion(p, adc); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *Chip) Layout() MultiRegionLayout { return c.layout }

// Plane exposes the chip as a single flat pixel region.
func (c *Chip) Plane() *PixelRegion { return &c.outer }

func (c *Chip) NumPixels() int        { return c.outer.NumPixels() }
func (c *Chip) HasActivePixels() bool { return c.outer.HasActivePixels() }
func (c *Chip) Adc(p Pixel) Adc       { return c.outer.Adc(p) }
func (c *Chip) Pixels() []PixelAdc    { return c.outer.Pixels() }

// AddPixel records a sample in the outer map and in the owning region.
func (c *Chip) AddPixel(p Pixel, adc Adc) error {
	if err := c.outer.AddPixel(p, adc); err != nil {
		return err
	}
	return c.addToRegion(p, adc)
}

func (c *Chip) addToRegion(p Pixel, adc Adc) error {
	if c.layout.NumRegions() <= 1 {
		return nil
	}
	regionID, local := c.layout.ToRegionPixel(p)
	if c.regions[regionID] == nil {
		c.regions[regionID] = NewPixelRegion(c.layout.Region)
	}
	return c.regions[regionID].AddPixel(local, adc)
}

// IsRegionActive reports whether the macro-region holds at least one pixel.
// Out-of-range ids are inactive.
func (c *Chip) IsRegionActive(regionID int) bool {
	if regionID < 0 || regionID >= c.layout.NumRegions() {
		return false
	}
	if c.layout.NumRegions() == 1 {
		return c.outer.HasActivePixels()
	}
	return c.regions[regionID] != nil
}

// Region returns the macro-region's pixels in region-local coordinates.
func (c *Chip) Region(regionID int) (*PixelRegion, error) {
	if !c.IsRegionActive(regionID) {
		return nil, codecErrorf(InvalidGeometry, "region %d is not active", regionID)
	}
	if c.layout.NumRegions() == 1 {
		return &c.outer, nil
	}
	return c.regions[regionID], nil
}

// OrderedPixels returns the chip's pixels under the requested traversal.
// The region orderings walk regions in row- or column-major grid order and
// emit each active region's pixels in row-major local order, re-expanded
// to plane coordinates.
func (c *Chip) OrderedPixels(ordering Ordering) ([]PixelAdc, error) {
	if ordering != ByRegionByRow && ordering != ByRegionByColumn {
		return c.outer.OrderedPixels(ordering)
	}
	outerN, innerN := c.layout.NRegionRows, c.layout.NRegionColumns
	regionID := c.layout.RegionID
	if ordering == ByRegionByColumn {
		outerN, innerN = c.layout.NRegionColumns, c.layout.NRegionRows
		regionID = func(n, k int) int { return c.layout.RegionID(k, n) }
	}

	var result []PixelAdc
	for n := 0; n < outerN; n++ {
		for k := 0; k < innerN; k++ {
			id := regionID(n, k)
			if !c.IsRegionActive(id) {
				continue
			}
			region, err := c.Region(id)
			if err != nil {
				return nil, err
			}
			for _, entry := range region.Pixels() {
				result = append(result, PixelAdc{
					Pixel: c.layout.FromRegionPixel(id, entry.Pixel),
					Adc:   entry.Adc,
				})
			}
		}
	}
	return result, nil
}

// HasSamePixels compares the outer pixel sets of both chips.
func (c *Chip) HasSamePixels(other *Chip, w io.Writer) bool {
	return c.outer.HasSamePixels(&other.outer, w)
}

// Equal reports pixel-set equality.
func (c *Chip) Equal(other *Chip) bool { return c.HasSamePixels(other, nil) }
