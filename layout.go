// Package pixelcomp studies on-chip lossless compression of pixel-detector
// readout data. A chip is a two-dimensional plane of pixels carrying small
// ADC samples; the package learns per-alphabet frequency statistics over a
// corpus of chips, builds Huffman dictionaries from them, and encodes and
// decodes chips through four alternative bit-packed wire formats so that
// the compression ratio of each format can be measured.
//
// Below is an example of using the driver commands to train a dictionary
// and measure the four formats on a corpus file:
//
//	go run traindict/main.go -out dict.txt corpus.txt
//	go run encode/main.go -dict dict.txt corpus.txt
package pixelcomp

import "fmt"

// Pixel is a (row, column) coordinate on a pixel plane.
// Coordinates are non-negative and fit in a signed 16-bit field.
type Pixel struct {
	Row, Column int16
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Column)
}

// Less orders pixels row-major: primary row, secondary column.
func (p Pixel) Less(other Pixel) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Column < other.Column
}

// Compare orders pixels row-major, returning -1, 0 or +1.
func (p Pixel) Compare(other Pixel) int {
	switch {
	case p.Less(other):
		return -1
	case other.Less(p):
		return 1
	}
	return 0
}

// Adc is a digitised intensity sample. Zero means the cell is inactive;
// callers conventionally pass raw_adc-1 so that no active pixel carries 0.
type Adc uint16

// PixelAdc pairs a pixel with its ADC sample.
type PixelAdc struct {
	Pixel Pixel
	Adc   Adc
}

// Ordering selects the traversal order of OrderedPixels.
type Ordering int

const (
	ByRow Ordering = iota
	ByColumn
	ByRegionByRow
	ByRegionByColumn
)

func (o Ordering) String() string {
	switch o {
	case ByRow:
		return "ByRow"
	case ByColumn:
		return "ByColumn"
	case ByRegionByRow:
		return "ByRegionByRow"
	case ByRegionByColumn:
		return "ByRegionByColumn"
	}
	return "unknown"
}

// ParseOrdering maps an ordering name back to its Ordering.
func ParseOrdering(s string) (Ordering, error) {
	for _, o := range []Ordering{ByRow, ByColumn, ByRegionByRow, ByRegionByColumn} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, codecErrorf(UnsupportedOption, "ordering %q is not supported", s)
}

// BitsPerValue returns ceil(log2(maxValue)), the number of bits needed to
// address maxValue distinct values. Values 0 and 1 need no bits.
func BitsPerValue(maxValue int) int {
	n := 0
	for v := maxValue - 1; v > 0; v >>= 1 {
		n++
	}
	return n
}

// RegionLayout is the shape of a rectangular pixel tile.
type RegionLayout struct {
	NRows, NColumns int
}

// NewRegionLayout validates the tile dimensions.
func NewRegionLayout(nRows, nColumns int) (RegionLayout, error) {
	if nRows <= 0 || nColumns <= 0 {
		return RegionLayout{}, codecErrorf(InvalidGeometry, "invalid region dimensions %dx%d", nRows, nColumns)
	}
	return RegionLayout{NRows: nRows, NColumns: nColumns}, nil
}

// MustRegionLayout is NewRegionLayout for statically known dimensions.
func MustRegionLayout(nRows, nColumns int) RegionLayout {
	layout, err := NewRegionLayout(nRows, nColumns)
	if err != nil {
		panic(err)
	}
	return layout
}

func (l RegionLayout) NumPixels() int { return l.NRows * l.NColumns }

func (l RegionLayout) BitsPerRow() int    { return BitsPerValue(l.NRows) }
func (l RegionLayout) BitsPerColumn() int { return BitsPerValue(l.NColumns) }
func (l RegionLayout) BitsPerID() int     { return BitsPerValue(l.NumPixels()) }

// Contains reports whether the pixel lies inside the tile.
func (l RegionLayout) Contains(p Pixel) bool {
	return p.Row >= 0 && int(p.Row) < l.NRows && p.Column >= 0 && int(p.Column) < l.NColumns
}

// CheckPixel returns a PixelOutOfRange error if the pixel is outside the tile.
func (l RegionLayout) CheckPixel(p Pixel) error {
	if p.Row < 0 || int(p.Row) >= l.NRows {
		return codecErrorf(PixelOutOfRange, "pixel row = %d is outside of the region interval [0, %d]", p.Row, l.NRows-1)
	}
	if p.Column < 0 || int(p.Column) >= l.NColumns {
		return codecErrorf(PixelOutOfRange, "pixel column = %d is outside of the region interval [0, %d]", p.Column, l.NColumns-1)
	}
	return nil
}

// PixelID returns the row-major id of the pixel inside the tile.
func (l RegionLayout) PixelID(p Pixel) (int, error) {
	if err := l.CheckPixel(p); err != nil {
		return 0, err
	}
	return int(p.Row)*l.NColumns + int(p.Column), nil
}

// PixelAt is the inverse of PixelID.
func (l RegionLayout) PixelAt(id int) (Pixel, error) {
	column := id % l.NColumns
	row := (id - column) / l.NColumns
	p := Pixel{Row: int16(row), Column: int16(column)}
	if err := l.CheckPixel(p); err != nil {
		return Pixel{}, err
	}
	return p, nil
}

// MultiRegionLayout is an outer tile subdivided into a grid of region
// tiles of shape Region. The last row and column of regions may be
// smaller when the outer dimensions do not divide evenly.
type MultiRegionLayout struct {
	RegionLayout
	Region                      RegionLayout
	NRegionRows, NRegionColumns int
	lastRows, lastColumns       int
}

// NewMultiRegionLayoutWithRegion subdivides an nRows x nColumns plane into
// tiles of the given region shape.
func NewMultiRegionLayoutWithRegion(nRows, nColumns int, region RegionLayout) (MultiRegionLayout, error) {
	outer, err := NewRegionLayout(nRows, nColumns)
	if err != nil {
		return MultiRegionLayout{}, err
	}
	if region.NRows <= 0 || region.NColumns <= 0 {
		return MultiRegionLayout{}, codecErrorf(InvalidGeometry, "invalid region dimensions %dx%d", region.NRows, region.NColumns)
	}
	l := MultiRegionLayout{RegionLayout: outer, Region: region}
	l.NRegionRows = ceilDiv(nRows, region.NRows)
	l.NRegionColumns = ceilDiv(nColumns, region.NColumns)
	l.lastRows = nRows - (l.NRegionRows-1)*region.NRows
	l.lastColumns = nColumns - (l.NRegionColumns-1)*region.NColumns
	return l, nil
}

// NewMultiRegionLayout subdivides an nRows x nColumns plane into an
// nRegionRows x nRegionColumns grid, deriving the region shape by ceiling
// division.
func NewMultiRegionLayout(nRows, nColumns, nRegionRows, nRegionColumns int) (MultiRegionLayout, error) {
	if nRegionRows <= 0 || nRegionColumns <= 0 {
		return MultiRegionLayout{}, codecErrorf(InvalidGeometry, "invalid multi-region split %dx%d", nRegionRows, nRegionColumns)
	}
	region := RegionLayout{NRows: ceilDiv(nRows, nRegionRows), NColumns: ceilDiv(nColumns, nRegionColumns)}
	return NewMultiRegionLayoutWithRegion(nRows, nColumns, region)
}

// MustMultiRegionLayout is NewMultiRegionLayout for statically known dimensions.
func MustMultiRegionLayout(nRows, nColumns, nRegionRows, nRegionColumns int) MultiRegionLayout {
	layout, err := NewMultiRegionLayout(nRows, nColumns, nRegionRows, nRegionColumns)
	if err != nil {
		panic(err)
	}
	return layout
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

func (l MultiRegionLayout) NumRegions() int { return l.NRegionRows * l.NRegionColumns }

// RegionID returns the row-major id of the region at the given grid position.
func (l MultiRegionLayout) RegionID(regionRow, regionColumn int) int {
	return regionRow*l.NRegionColumns + regionColumn
}

// ToRegionPixel maps a plane pixel to its region id and region-local pixel.
func (l MultiRegionLayout) ToRegionPixel(p Pixel) (regionID int, local Pixel) {
	regionRow := int(p.Row) / l.Region.NRows
	regionColumn := int(p.Column) / l.Region.NColumns
	regionID = regionRow*l.NRegionColumns + regionColumn
	local = Pixel{
		Row:    int16(int(p.Row) % l.Region.NRows),
		Column: int16(int(p.Column) % l.Region.NColumns),
	}
	return regionID, local
}

// FromRegionPixel is the inverse of ToRegionPixel.
func (l MultiRegionLayout) FromRegionPixel(regionID int, local Pixel) Pixel {
	regionColumn := regionID % l.NRegionColumns
	regionRow := (regionID - regionColumn) / l.NRegionColumns
	return Pixel{
		Row:    int16(regionRow*l.Region.NRows + int(local.Row)),
		Column: int16(regionColumn*l.Region.NColumns + int(local.Column)),
	}
}

// ActualRegionLayout returns the true shape of a region, which may be
// clipped for the last region row or column.
func (l MultiRegionLayout) ActualRegionLayout(regionID int) RegionLayout {
	regionColumn := regionID % l.NRegionColumns
	regionRow := (regionID - regionColumn) / l.NRegionColumns
	shape := l.Region
	if regionRow+1 == l.NRegionRows {
		shape.NRows = l.lastRows
	}
	if regionColumn+1 == l.NRegionColumns {
		shape.NColumns = l.lastColumns
	}
	return shape
}

// IsRegionComplete reports whether the region has the canonical shape.
func (l MultiRegionLayout) IsRegionComplete(regionID int) bool {
	return l.ActualRegionLayout(regionID) == l.Region
}

// Equal compares the subdivision only: two layouts are interchangeable for
// the codecs when their region shape and grid agree.
func (l MultiRegionLayout) Equal(other MultiRegionLayout) bool {
	return l.Region == other.Region &&
		l.NRegionRows == other.NRegionRows && l.NRegionColumns == other.NRegionColumns
}
