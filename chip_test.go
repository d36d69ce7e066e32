package pixelcomp

import (
	"errors"
	"testing"
)

func addPixels(t *testing.T, chip *Chip, pixels []PixelAdc) {
	t.Helper()
	for _, entry := range pixels {
		if err := chip.AddPixel(entry.Pixel, entry.Adc); err != nil {
			t.Fatalf("add %v: %v", entry.Pixel, err)
		}
	}
}

func TestAddPixelFaults(t *testing.T) {
	chip := NewChip(MustMultiRegionLayout(4, 4, 2, 2))
	if err := chip.AddPixel(Pixel{Row: 1, Column: 1}, 3); err != nil {
		t.Fatalf("%v", err)
	}
	if err := chip.AddPixel(Pixel{Row: 1, Column: 1}, 3); !errors.Is(err, &CodecError{Kind: DuplicatePixel}) {
		t.Errorf("err = %v", err)
	}
	if err := chip.AddPixel(Pixel{Row: 4, Column: 0}, 1); !errors.Is(err, &CodecError{Kind: PixelOutOfRange}) {
		t.Errorf("err = %v", err)
	}
}

func TestRegionActivity(t *testing.T) {
	chip := NewChip(MustMultiRegionLayout(4, 4, 2, 2))
	addPixels(t, chip, []PixelAdc{
		{Pixel{0, 0}, 1}, {Pixel{1, 1}, 4}, {Pixel{0, 3}, 2},
	})
	if !chip.IsRegionActive(0) || !chip.IsRegionActive(1) {
		t.Errorf("regions 0 and 1 should be active")
	}
	if chip.IsRegionActive(2) || chip.IsRegionActive(3) {
		t.Errorf("regions 2 and 3 should be inactive")
	}
	if chip.IsRegionActive(4) {
		t.Errorf("out-of-range region should be inactive")
	}
	region, err := chip.Region(0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if region.NumPixels() != 2 {
		t.Errorf("region 0 pixels = %d", region.NumPixels())
	}
	// Region pixels use local coordinates.
	if region.Adc(Pixel{Row: 1, Column: 1}) != 4 {
		t.Errorf("local adc = %d", region.Adc(Pixel{Row: 1, Column: 1}))
	}
	if _, err := chip.Region(2); err == nil {
		t.Errorf("inactive region should fail")
	}
}

func TestOrderings(t *testing.T) {
	chip := NewChip(MustMultiRegionLayout(4, 4, 2, 2))
	addPixels(t, chip, []PixelAdc{
		{Pixel{0, 0}, 1}, {Pixel{0, 3}, 2}, {Pixel{3, 1}, 3}, {Pixel{1, 1}, 4},
	})
	cases := []struct {
		ordering Ordering
		want     []Pixel
	}{
		{ByRow, []Pixel{{0, 0}, {0, 3}, {1, 1}, {3, 1}}},
		{ByColumn, []Pixel{{0, 0}, {1, 1}, {3, 1}, {0, 3}}},
		{ByRegionByRow, []Pixel{{0, 0}, {1, 1}, {0, 3}, {3, 1}}},
		{ByRegionByColumn, []Pixel{{0, 0}, {1, 1}, {3, 1}, {0, 3}}},
	}
	for _, c := range cases {
		got, err := chip.OrderedPixels(c.ordering)
		if err != nil {
			t.Fatalf("%v: %v", c.ordering, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("%v: %d pixels", c.ordering, len(got))
		}
		for i := range c.want {
			if got[i].Pixel != c.want[i] {
				t.Errorf("%v: position %d = %v, want %v", c.ordering, i, got[i].Pixel, c.want[i])
			}
		}
	}
}

func TestSplitRegionPreservesPixels(t *testing.T) {
	original := NewChip(MustMultiRegionLayout(400, 400, 1, 1))
	addPixels(t, original, []PixelAdc{
		{Pixel{0, 0}, 1}, {Pixel{10, 250}, 5}, {Pixel{399, 399}, 14},
	})
	split, err := SplitRegion(original.Plane(), 1, 4)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !split.Layout().Equal(MustMultiRegionLayout(400, 400, 1, 4)) {
		t.Errorf("layout = %+v", split.Layout())
	}
	if !split.Plane().HasSamePixels(original.Plane(), nil) {
		t.Errorf("pixel set changed by re-partitioning")
	}

	// Mirror invariant: every pixel is in the outer map and its region.
	if !split.IsRegionActive(2) {
		t.Fatalf("region 2 inactive")
	}
	region, err := split.Region(2)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if region.Adc(Pixel{Row: 10, Column: 50}) != 5 {
		t.Errorf("region-local pixel missing")
	}
	for _, id := range []int{0, 3} {
		if id == 0 && !split.IsRegionActive(id) {
			t.Errorf("region %d should be active", id)
		}
	}
}

func TestSingleRegionChipActsAsItsOwnRegion(t *testing.T) {
	chip := NewChip(MustMultiRegionLayout(8, 8, 1, 1))
	addPixels(t, chip, []PixelAdc{{Pixel{2, 2}, 7}})
	if !chip.IsRegionActive(0) {
		t.Fatalf("region 0 inactive")
	}
	region, err := chip.Region(0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if region.Adc(Pixel{Row: 2, Column: 2}) != 7 {
		t.Errorf("adc = %d", region.Adc(Pixel{Row: 2, Column: 2}))
	}
}

func TestHasSamePixels(t *testing.T) {
	layout := MustMultiRegionLayout(4, 4, 2, 2)
	a, b := NewChip(layout), NewChip(layout)
	addPixels(t, a, []PixelAdc{{Pixel{0, 0}, 1}, {Pixel{1, 2}, 2}})
	addPixels(t, b, []PixelAdc{{Pixel{1, 2}, 2}, {Pixel{0, 0}, 1}})
	if !a.Equal(b) {
		t.Errorf("equal chips differ")
	}
	c := NewChip(layout)
	addPixels(t, c, []PixelAdc{{Pixel{0, 0}, 1}, {Pixel{1, 2}, 3}})
	if a.Equal(c) {
		t.Errorf("different adc compares equal")
	}
	d := NewChip(layout)
	addPixels(t, d, []PixelAdc{{Pixel{0, 0}, 1}})
	if a.Equal(d) {
		t.Errorf("different size compares equal")
	}
}
