package pixelcomp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pixelstudies/pixelcomp/huffman"
)

// Statistics is an immutable frequency summary of one alphabet: the
// original probabilities, the Shannon entropy and the Huffman table built
// from the observed counts.
type Statistics struct {
	name          string
	alphabet      []int
	counts        uint64
	probabilities map[int]float64
	entropy       float64
	table         *huffman.Table[int]
}

// NewStatistics validates and freezes a statistics bundle.
func NewStatistics(name string, counts uint64, probabilities map[int]float64,
	entropy float64, table *huffman.Table[int]) (*Statistics, error) {
	if entropy < 0 {
		return nil, codecErrorf(DictionaryParse, "entropy = %g should be a positive number or zero", entropy)
	}
	if counts == 0 {
		return nil, codecErrorf(DictionaryParse, "original counts should be a positive number")
	}
	if len(probabilities) == 0 {
		return nil, codecErrorf(DictionaryParse, "alphabet is empty")
	}
	alphabet := maps.Keys(probabilities)
	slices.Sort(alphabet)
	total := 0.0
	for _, letter := range alphabet {
		p := probabilities[letter]
		if p < 0 || p > 1 {
			return nil, codecErrorf(DictionaryParse, "invalid original probability for letter '%d'", letter)
		}
		if _, ok := table.CodeOf(letter); !ok {
			return nil, codecErrorf(DictionaryParse, "missing Huffman code for letter '%d'", letter)
		}
		total += p
	}
	if math.Abs(total-1) > 1e-5 {
		return nil, codecErrorf(DictionaryParse, "total original probability = %g is not consistent with 1", total)
	}
	return &Statistics{
		name:          name,
		alphabet:      alphabet,
		counts:        counts,
		probabilities: probabilities,
		entropy:       entropy,
		table:         table,
	}, nil
}

func (s *Statistics) Name() string     { return s.name }
func (s *Statistics) Entropy() float64 { return s.entropy }
func (s *Statistics) Counts() uint64   { return s.counts }

// Alphabet returns the letters in ascending order.
func (s *Statistics) Alphabet() []int { return s.alphabet }

// Contains reports whether the letter belongs to the alphabet.
func (s *Statistics) Contains(letter int) bool {
	_, ok := s.probabilities[letter]
	return ok
}

// Probability returns the original probability of a letter.
func (s *Statistics) Probability(letter int) (float64, error) {
	p, ok := s.probabilities[letter]
	if !ok {
		return 0, codecErrorf(UnknownLetter, "letter '%d' not present in the alphabet", letter)
	}
	return p, nil
}

// Frequency returns the original count of a letter.
func (s *Statistics) Frequency(letter int) (float64, error) {
	p, err := s.Probability(letter)
	if err != nil {
		return 0, err
	}
	return p * float64(s.counts), nil
}

// CodeOf returns the Huffman code of a letter.
func (s *Statistics) CodeOf(letter int) (huffman.Code, error) {
	code, ok := s.table.CodeOf(letter)
	if !ok {
		return huffman.Code{}, codecErrorf(UnknownLetter, "letter '%d' not present in the alphabet", letter)
	}
	return code, nil
}

// LetterOf returns the letter with the exact given code.
func (s *Statistics) LetterOf(code huffman.Code) (int, bool) {
	return s.table.LetterOf(code)
}

// EncodeLetter appends the letter's Huffman code to the package, first
// branch bit first.
func (s *Statistics) EncodeLetter(letter int, pkg *Package) error {
	code, err := s.CodeOf(letter)
	if err != nil {
		return err
	}
	for n := 0; n < code.NumBits(); n++ {
		if err := pkg.WriteEx((code.Bits()>>n)&1, 1); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLetter reads bits until they spell a letter of the alphabet.
func (s *Statistics) DecodeLetter(iter *Iterator) (int, error) {
	var code huffman.Code
	for {
		bit, err := iter.Read(1, false)
		if err != nil {
			return 0, err
		}
		code, err = code.Append(bit == 1)
		if err != nil {
			return 0, codecErrorf(UnknownLetter, "no letter matches a %d-bit prefix", code.NumBits())
		}
		if letter, ok := s.table.LetterOf(code); ok {
			return letter, nil
		}
	}
}

const (
	statRowWidth    = 20
	statHeaderWidth = 30
)

// WriteTo serialises the statistics as one dictionary-file block.
func (s *Statistics) WriteTo(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s\n", s.name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%d\n", statHeaderWidth, "number_of_letters ", len(s.alphabet)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%.5e\n", statHeaderWidth, "alphabet_entropy ", s.entropy); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%d\n", statHeaderWidth, "original_number_of_counts ", s.counts); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-*s%-*s%-*s%-*s\n", statRowWidth, "Letter", statRowWidth, "Orig_probability",
		statRowWidth, "Huffman_nbits", statRowWidth, "Huffman_code"); err != nil {
		return err
	}
	for _, letter := range s.alphabet {
		code, err := s.CodeOf(letter)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-*d%-*.5e%-*d%-*s\n", statRowWidth, letter,
			statRowWidth, s.probabilities[letter], statRowWidth, code.NumBits(),
			statRowWidth, code.String()); err != nil {
			return err
		}
	}
	return nil
}

// ReadStatistics parses one block from the stream. It returns io.EOF when
// the stream ends cleanly at a block boundary; a truncation inside a block
// is a DictionaryParse error.
func ReadStatistics(r *bufio.Reader) (*Statistics, error) {
	name, err := readBlockName(r)
	if err != nil {
		return nil, err
	}
	nLetters, err := readIntParam(r)
	if err != nil {
		return nil, truncated(name, err)
	}
	entropy, err := readFloatParam(r)
	if err != nil {
		return nil, truncated(name, err)
	}
	counts, err := readUintParam(r)
	if err != nil {
		return nil, truncated(name, err)
	}
	// Column header of the letter table.
	for i := 0; i < 4; i++ {
		if _, err := readToken(r); err != nil {
			return nil, truncated(name, err)
		}
	}

	probabilities := make(map[int]float64, nLetters)
	codes := make(map[int]huffman.Code, nLetters)
	for n := 0; n < nLetters; n++ {
		letter, err := readIntToken(r)
		if err != nil {
			return nil, truncated(name, err)
		}
		probability, err := readFloatToken(r)
		if err != nil {
			return nil, truncated(name, err)
		}
		if _, err := readIntToken(r); err != nil { // Huffman_nbits, implied by the code
			return nil, truncated(name, err)
		}
		codeText, err := readToken(r)
		if err != nil {
			return nil, truncated(name, err)
		}
		code, err := huffman.ParseCode(codeText)
		if err != nil {
			return nil, codecErrorf(DictionaryParse, "block '%s': %v", name, err)
		}
		if _, ok := probabilities[letter]; ok {
			return nil, codecErrorf(DictionaryParse, "block '%s': letter '%d' already defined", name, letter)
		}
		probabilities[letter] = probability
		codes[letter] = code
	}
	table, err := huffman.NewFromCodes(codes)
	if err != nil {
		return nil, codecErrorf(DictionaryParse, "block '%s': %v", name, err)
	}
	return NewStatistics(name, counts, probabilities, entropy, table)
}

func truncated(name string, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return codecErrorf(DictionaryParse, "unexpected end of stream inside block '%s'", name)
	}
	return err
}

// readBlockName returns the next non-blank line, with a UTF-8 BOM and a
// trailing '\r' stripped. io.EOF means a clean end of the stream.
func readBlockName(r *bufio.Reader) (string, error) {
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimPrefix(line, "\xef\xbb\xbf")
		line = strings.TrimSpace(line)
		if line != "" {
			return line, nil
		}
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
	}
}

// readToken returns the next whitespace-separated token.
func readToken(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			if sb.Len() != 0 && err == io.EOF {
				return sb.String(), nil
			}
			return "", err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			if sb.Len() != 0 {
				return sb.String(), nil
			}
		default:
			sb.WriteByte(b)
		}
	}
}

// readIntParam reads a "name value" parameter pair and returns the value.
func readIntParam(r *bufio.Reader) (int, error) {
	if _, err := readToken(r); err != nil {
		return 0, err
	}
	return readIntToken(r)
}

func readFloatParam(r *bufio.Reader) (float64, error) {
	if _, err := readToken(r); err != nil {
		return 0, err
	}
	return readFloatToken(r)
}

func readUintParam(r *bufio.Reader) (uint64, error) {
	if _, err := readToken(r); err != nil {
		return 0, err
	}
	token, err := readToken(r)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return 0, codecErrorf(DictionaryParse, "invalid integer %q", token)
	}
	return value, nil
}

func readIntToken(r *bufio.Reader) (int, error) {
	token, err := readToken(r)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, codecErrorf(DictionaryParse, "invalid integer %q", token)
	}
	return value, nil
}

func readFloatToken(r *bufio.Reader) (float64, error) {
	token, err := readToken(r)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, codecErrorf(DictionaryParse, "invalid floating point value %q", token)
	}
	return value, nil
}
