// Command encode measures the four wire formats on a chip corpus. Every
// chip is encoded, decoded and verified against the original; the report
// lists the per-format bit totals next to a zstd baseline over the raw
// pixel triples.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/pixelstudies/pixelcomp"
)

var (
	dictionary     = flag.String("dict", "dictionaries.txt", "dictionary file for the Huffman formats")
	nRows          = flag.Int("rows", 400, "chip rows")
	nColumns       = flag.Int("columns", 400, "chip columns")
	nRegionRows    = flag.Int("region-rows", 1, "macro-region grid rows")
	nRegionColumns = flag.Int("region-columns", 4, "macro-region grid columns")
	unitRows       = flag.Int("unit-rows", 2, "readout unit rows")
	unitColumns    = flag.Int("unit-columns", 2, "readout unit columns")
	maxAdc         = flag.Int("max-adc", 15, "maximum ADC value")
	ordering       = flag.String("ordering", "ByRegionByColumn", "pixel ordering for the delta format")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] corpus\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	name := flag.Arg(0)
	if name == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(name); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(name string) error {
	chipLayout, err := pixelcomp.NewMultiRegionLayout(*nRows, *nColumns, *nRegionRows, *nRegionColumns)
	if err != nil {
		return err
	}
	readoutUnit, err := pixelcomp.NewRegionLayout(*unitRows, *unitColumns)
	if err != nil {
		return err
	}
	order, err := pixelcomp.ParseOrdering(*ordering)
	if err != nil {
		return err
	}

	f, err := os.Open(name)
	if err != nil {
		return errors.Wrap(err, "")
	}
	chips, err := pixelcomp.ReadChips(f, chipLayout)
	f.Close()
	if err != nil {
		return errors.Wrapf(err, "corpus %q", name)
	}

	formats := []pixelcomp.EncoderFormat{
		pixelcomp.FormatSinglePixel,
		pixelcomp.FormatRegion,
		pixelcomp.FormatRegionWithCompressedAdc,
		pixelcomp.FormatDelta,
	}
	encoders := make(map[pixelcomp.EncoderFormat]*pixelcomp.ChipDataEncoder, len(formats))
	for _, format := range formats {
		encoder, err := pixelcomp.NewChipDataEncoder(format, chipLayout, readoutUnit, *maxAdc, order, *dictionary)
		if err != nil {
			return errors.Wrapf(err, "format %v", format)
		}
		encoders[format] = encoder
	}

	totalBits := make(map[pixelcomp.EncoderFormat]int, len(formats))
	for i, chip := range chips {
		for _, format := range formats {
			pkg, err := encoders[format].Encode(chip)
			if err != nil {
				return errors.Wrapf(err, "chip %d, format %v", i, format)
			}
			decoded, err := encoders[format].Decode(pkg)
			if err != nil {
				return errors.Wrapf(err, "chip %d, format %v", i, format)
			}
			if !decoded.Equal(chip) {
				chip.HasSamePixels(decoded, os.Stderr)
				return errors.Errorf("chip %d, format %v: invalid encoding-decoding", i, format)
			}
			totalBits[format] += pkg.SizeBits()
		}
	}

	baselineBits, rawBits, err := zstdBaseline(chips)
	if err != nil {
		return err
	}
	fmt.Printf("%d chips, raw pixel triples: %d bits\n", len(chips), rawBits)
	for _, format := range formats {
		fmt.Printf("%-24v%10d bits  (%.3fx)\n", format, totalBits[format], ratio(rawBits, totalBits[format]))
	}
	fmt.Printf("%-24s%10d bits  (%.3fx)\n", "zstd baseline", baselineBits, ratio(rawBits, baselineBits))
	return nil
}

func ratio(rawBits, encodedBits int) float64 {
	if encodedBits == 0 {
		return 0
	}
	return float64(rawBits) / float64(encodedBits)
}

// zstdBaseline compresses the corpus as little-endian (row, column, adc)
// uint16 triples and returns the compressed and raw sizes in bits.
func zstdBaseline(chips []*pixelcomp.Chip) (compressedBits, rawBits int, err error) {
	var raw []byte
	for _, chip := range chips {
		for _, entry := range chip.Pixels() {
			raw = binary.LittleEndian.AppendUint16(raw, uint16(entry.Pixel.Row))
			raw = binary.LittleEndian.AppendUint16(raw, uint16(entry.Pixel.Column))
			raw = binary.LittleEndian.AppendUint16(raw, uint16(entry.Adc))
		}
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return 0, 0, errors.Wrap(err, "zstd")
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)
	return len(compressed) * 8, len(raw) * 8, nil
}
