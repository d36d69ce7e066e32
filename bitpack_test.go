package pixelcomp

import (
	"errors"
	"testing"
)

func TestWriteExReadExBijection(t *testing.T) {
	for nBits := 0; nBits <= 64; nBits++ {
		value := uint64(0xA5A5A5A5A5A5A5A5) & fieldMask(nBits)
		pkg := NewPackage()
		if err := pkg.WriteEx(value, nBits); err != nil {
			t.Fatalf("n = %d: %v", nBits, err)
		}
		got, err := pkg.Iter().ReadEx(nBits, false)
		if err != nil {
			t.Fatalf("n = %d: %v", nBits, err)
		}
		if got != value {
			t.Errorf("n = %d: %x != %x", nBits, got, value)
		}
	}
}

func TestWriteReadBijection(t *testing.T) {
	for nBits := 0; nBits <= 64; nBits++ {
		value := uint64(0x123456789ABCDEF0) & fieldMask(nBits)
		pkg := NewPackage()
		if err := pkg.Write(value, nBits); err != nil {
			t.Fatalf("n = %d: %v", nBits, err)
		}
		got, err := pkg.Iter().Read(nBits, false)
		if err != nil {
			t.Fatalf("n = %d: %v", nBits, err)
		}
		if got != value {
			t.Errorf("n = %d: %x != %x", nBits, got, value)
		}
	}
}

func TestBitLayoutLittleEndianByBitIndex(t *testing.T) {
	pkg := NewPackage()
	if err := pkg.WriteEx(0xAB, 8); err != nil {
		t.Fatalf("%v", err)
	}
	if pkg.Bytes()[0] != 0xAB {
		t.Errorf("byte = %#x", pkg.Bytes()[0])
	}

	// An MSB-first write of 0b110 emits bits 1,1,0 at stream positions
	// 0,1,2, which live at the low bits of the first byte.
	pkg = NewPackage()
	if err := pkg.Write(0b110, 3); err != nil {
		t.Fatalf("%v", err)
	}
	if pkg.Bytes()[0] != 0b011 {
		t.Errorf("byte = %#b", pkg.Bytes()[0])
	}
}

func TestWriteValueTooWide(t *testing.T) {
	pkg := NewPackage()
	if err := pkg.Write(4, 2); !errors.Is(err, &CodecError{Kind: ValueTooWide}) {
		t.Errorf("err = %v", err)
	}
	if err := pkg.Write(0, 65); !errors.Is(err, &CodecError{Kind: ValueTooWide}) {
		t.Errorf("err = %v", err)
	}
	if err := pkg.WriteEx(8, 3); !errors.Is(err, &CodecError{Kind: ValueTooWide}) {
		t.Errorf("err = %v", err)
	}
}

func TestReadUnderflow(t *testing.T) {
	pkg := NewPackage()
	if err := pkg.Write(0b101, 3); err != nil {
		t.Fatalf("%v", err)
	}

	if _, err := pkg.Iter().Read(5, false); !errors.Is(err, &CodecError{Kind: PackageUnderflow}) {
		t.Errorf("err = %v", err)
	}

	// With the zero-fill flag the partial value is left-shifted by the
	// missing bit count.
	got, err := pkg.Iter().Read(5, true)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if got != 0b10100 {
		t.Errorf("got = %#b", got)
	}
	gotEx, err := pkg.Iter().ReadEx(5, true)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if gotEx != 0b10100 { // bits 1,0,1 LSB-first = 0b101, shifted by 2
		t.Errorf("gotEx = %#b", gotEx)
	}
}

func TestInterleavedFields(t *testing.T) {
	pkg := NewPackage()
	fields := []struct {
		value uint64
		nBits int
	}{{4020, 18}, {3, 4}, {1, 1}, {0, 7}, {0xFFFF, 16}}
	for _, f := range fields {
		if err := pkg.Write(f.value, f.nBits); err != nil {
			t.Fatalf("%v", err)
		}
	}
	iter := pkg.Iter()
	for _, f := range fields {
		got, err := iter.Read(f.nBits, false)
		if err != nil {
			t.Fatalf("%v", err)
		}
		if got != f.value {
			t.Errorf("got %d, want %d", got, f.value)
		}
	}
	if !iter.AtEnd() {
		t.Errorf("iterator not at end, position = %d", iter.Position())
	}
}

func TestFinalizeByte(t *testing.T) {
	pkg := NewPackage()
	pkg.Write(0b101, 3)
	pkg.FinalizeByte()
	if pkg.SizeBits() != 8 {
		t.Errorf("size = %d", pkg.SizeBits())
	}
	pkg.FinalizeByte()
	if pkg.SizeBits() != 8 {
		t.Errorf("size after second finalize = %d", pkg.SizeBits())
	}
}

func TestReadoutPositions(t *testing.T) {
	pkg := NewPackage()
	pkg.NextReadoutCycle()
	pkg.Write(0xF, 4)
	pkg.NextReadoutCycle()
	pkg.Write(0, 10)
	pkg.NextReadoutCycle()
	want := []int{0, 4, 14}
	got := pkg.ReadoutPositions()
	if len(got) != len(want) {
		t.Fatalf("positions = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("positions = %v, want %v", got, want)
		}
	}
}

func TestAppendPackage(t *testing.T) {
	a := NewPackage()
	a.Write(0x3FF, 10)
	a.Write(0b0, 1)
	b := NewPackage()
	b.Write(0xABCDEF, 24)
	b.Write(0x123456789ABCDEF0, 64)

	combined := NewPackage()
	if err := combined.Append(a); err != nil {
		t.Fatalf("%v", err)
	}
	if err := combined.Append(b); err != nil {
		t.Fatalf("%v", err)
	}

	direct := NewPackage()
	direct.Write(0x3FF, 10)
	direct.Write(0b0, 1)
	direct.Write(0xABCDEF, 24)
	direct.Write(0x123456789ABCDEF0, 64)
	if !combined.Equal(direct) {
		t.Errorf("append differs from direct writes")
	}
}

func TestIteratorSkipRewind(t *testing.T) {
	pkg := NewPackage()
	pkg.Write(0xDEAD, 16)
	iter := pkg.Iter()
	if err := iter.Skip(4); err != nil {
		t.Fatalf("%v", err)
	}
	got, err := iter.Read(12, false)
	if err != nil {
		t.Fatalf("%v", err)
	}
	if got != 0xEAD {
		t.Errorf("got = %#x", got)
	}
	if err := iter.Rewind(12); err != nil {
		t.Fatalf("%v", err)
	}
	if iter.Position() != 4 {
		t.Errorf("position = %d", iter.Position())
	}
	if err := iter.Rewind(5); err == nil {
		t.Errorf("rewind past start should fail")
	}
	if err := iter.Skip(13); err == nil {
		t.Errorf("skip past end should fail")
	}
	if _, err := pkg.IterAt(17); err == nil {
		t.Errorf("IterAt past end should fail")
	}
}
