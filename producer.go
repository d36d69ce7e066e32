package pixelcomp

import (
	"log"
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/pixelstudies/pixelcomp/huffman"
)

// Producer accumulates letter counts for one alphabet. AddCount, Produce
// and Reduce are serialised by an internal lock, so a producer may be fed
// from several goroutines; Produce takes a snapshot and returns an
// immutable Statistics.
type Producer struct {
	mu          sync.Mutex
	name        string
	counts      uint64
	frequencies map[int]uint64
	saturated   bool
}

// NewProducer creates a producer, optionally seeded with a known alphabet
// whose letters start at frequency zero.
func NewProducer(name string, alphabet []int) *Producer {
	p := &Producer{name: name, frequencies: make(map[int]uint64)}
	for _, letter := range alphabet {
		p.frequencies[letter] = 0
	}
	return p
}

// NewRangeProducer seeds the alphabet with the integer range [begin, end).
func NewRangeProducer(name string, begin, end int) *Producer {
	p := &Producer{name: name, frequencies: make(map[int]uint64)}
	for letter := begin; letter < end; letter++ {
		p.frequencies[letter] = 0
	}
	return p
}

func (p *Producer) Name() string { return p.name }

// NumLetters returns the current alphabet size.
func (p *Producer) NumLetters() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.frequencies)
}

// AddCount records one observation of letter. Once the total count
// saturates, further observations are dropped.
func (p *Producer) AddCount(letter int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts == math.MaxUint64 {
		p.saturated = true
		return
	}
	p.frequencies[letter]++
	p.counts++
}

type letterFrequency struct {
	letter    int
	frequency uint64
}

// orderedFrequencies returns letters by ascending frequency, ties broken
// by descending letter value. Callers hold p.mu.
func (p *Producer) orderedFrequencies() ([]letterFrequency, error) {
	if p.counts == 0 {
		return nil, errors.Errorf("statistics is not available for %q", p.name)
	}
	if p.saturated {
		log.Printf("WARNING: count limit was reached while collecting statistics for %q", p.name)
	}
	ordered := make([]letterFrequency, 0, len(p.frequencies))
	for letter, frequency := range p.frequencies {
		ordered = append(ordered, letterFrequency{letter: letter, frequency: frequency})
	}
	slices.SortFunc(ordered, func(a, b letterFrequency) int {
		if a.frequency != b.frequency {
			if a.frequency < b.frequency {
				return -1
			}
			return 1
		}
		return b.letter - a.letter
	})
	return ordered, nil
}

// Produce freezes the accumulated counts into a Statistics.
func (p *Producer) Produce() (*Statistics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ordered, err := p.orderedFrequencies()
	if err != nil {
		return nil, err
	}
	probabilities := make(map[int]float64, len(ordered))
	entropy := 0.0
	for _, entry := range ordered {
		probability := float64(entry.frequency) / float64(p.counts)
		probabilities[entry.letter] = probability
		if probability > 0 {
			entropy -= probability * math.Log2(probability)
		}
	}
	table, err := huffman.New(p.frequencies)
	if err != nil {
		return nil, errors.Wrapf(err, "alphabet %q", p.name)
	}
	return NewStatistics(p.name, p.counts, probabilities, entropy, table)
}

// Reduce bounds the alphabet to newSize letters: the top newSize-1 most
// frequent letters survive verbatim and specialLetter absorbs the summed
// frequency of the dropped rest. When the alphabet already fits, a clone
// is returned. The total count is preserved either way.
func (p *Producer) Reduce(newSize int, newName string, specialLetter int) (*Producer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if newSize <= 1 {
		return nil, errors.Errorf("new alphabet size = %d is too small", newSize)
	}
	if _, ok := p.frequencies[specialLetter]; ok {
		return nil, errors.Errorf("special letter '%d' already present in the alphabet", specialLetter)
	}
	ordered, err := p.orderedFrequencies()
	if err != nil {
		return nil, err
	}
	if len(ordered) <= newSize {
		clone := &Producer{name: p.name, counts: p.counts, frequencies: make(map[int]uint64, len(p.frequencies))}
		for letter, frequency := range p.frequencies {
			clone.frequencies[letter] = frequency
		}
		return clone, nil
	}

	reduced := &Producer{name: newName, counts: p.counts, frequencies: make(map[int]uint64, newSize)}
	var kept uint64
	for n := 0; n < newSize-1; n++ {
		entry := ordered[len(ordered)-1-n]
		reduced.frequencies[entry.letter] = entry.frequency
		kept += entry.frequency
	}
	reduced.frequencies[specialLetter] = p.counts - kept
	return reduced, nil
}
