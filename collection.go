package pixelcomp

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AlphabetType names the alphabets the codecs look up in a collection.
type AlphabetType int

const (
	AdcAlphabet AlphabetType = iota
	ActiveAdcAlphabet
	DeltaRowAlphabet
	DeltaColumnAlphabet
	DeltaRowColumnAlphabet
)

// Name returns the canonical dictionary-block name of the alphabet type.
func (t AlphabetType) Name() string {
	switch t {
	case AdcAlphabet:
		return "all_adc"
	case ActiveAdcAlphabet:
		return "active_adc"
	case DeltaRowAlphabet:
		return "delta_row"
	case DeltaColumnAlphabet:
		return "delta_column"
	case DeltaRowColumnAlphabet:
		return "delta_row_column"
	}
	return "unknown"
}

// Collection maps alphabet names to their statistics.
type Collection struct {
	statistics map[string]*Statistics
}

// LoadCollection reads every dictionary block of the file.
func LoadCollection(path string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dictionary %q", path)
	}
	defer f.Close()
	c, err := ReadCollection(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "dictionary %q", path)
	}
	return c, nil
}

// ReadCollection parses concatenated dictionary blocks until end of stream.
func ReadCollection(r *bufio.Reader) (*Collection, error) {
	c := &Collection{statistics: make(map[string]*Statistics)}
	for {
		stat, err := ReadStatistics(r)
		if err == io.EOF {
			return c, nil
		}
		if err != nil {
			return nil, err
		}
		if _, ok := c.statistics[stat.Name()]; ok {
			return nil, codecErrorf(DictionaryParse, "alphabet statistics with name '%s' is already defined", stat.Name())
		}
		c.statistics[stat.Name()] = stat
	}
}

// Has reports whether the collection holds the named alphabet.
func (c *Collection) Has(name string) bool {
	_, ok := c.statistics[name]
	return ok
}

// Names returns the held alphabet names in ascending order.
func (c *Collection) Names() []string {
	names := maps.Keys(c.statistics)
	slices.Sort(names)
	return names
}

// Get returns the named statistics.
func (c *Collection) Get(name string) (*Statistics, error) {
	stat, ok := c.statistics[name]
	if !ok {
		return nil, codecErrorf(UnknownAlphabet, "alphabet statistics '%s' not found", name)
	}
	return stat, nil
}

// ByType returns the statistics for a canonical alphabet type.
func (c *Collection) ByType(t AlphabetType) (*Statistics, error) {
	return c.Get(t.Name())
}
