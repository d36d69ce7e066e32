// Command traindict builds Huffman dictionaries from a chip corpus.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/pixelstudies/pixelcomp"
)

var (
	out             = flag.String("out", "dictionaries.txt", "output dictionary file")
	nRows           = flag.Int("rows", 400, "chip rows")
	nColumns        = flag.Int("columns", 400, "chip columns")
	nRegionRows     = flag.Int("region-rows", 1, "macro-region grid rows")
	nRegionColumns  = flag.Int("region-columns", 4, "macro-region grid columns")
	unitRows        = flag.Int("unit-rows", 2, "readout unit rows")
	unitColumns     = flag.Int("unit-columns", 2, "readout unit columns")
	maxAdc          = flag.Int("max-adc", 15, "maximum ADC value")
	maxAlphabetSize = flag.Int("max-alphabet", 32, "maximum delta alphabet size")
	ordering        = flag.String("ordering", "ByRegionByColumn", "pixel ordering for the delta alphabet")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] corpus...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Args()); err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(corpora []string) error {
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

	builder := pixelcomp.NewDictionaryBuilder(chipLayout, order, readoutUnit, *maxAdc, *maxAlphabetSize)
	nChips := 0
	for _, name := range corpora {
		f, err := os.Open(name)
		if err != nil {
			return errors.Wrap(err, "")
		}
		chips, err := pixelcomp.ReadChips(f, chipLayout)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "corpus %q", name)
		}
		for _, chip := range chips {
			if err := builder.AddChip(chip); err != nil {
				return errors.Wrapf(err, "corpus %q", name)
			}
		}
		nChips += len(chips)
	}

	if err := builder.SaveDictionaries(*out); err != nil {
		return err
	}
	log.Printf("trained on %d chips, dictionaries written to %s", nChips, *out)
	return nil
}
