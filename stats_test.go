package pixelcomp

import (
	"bufio"
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/pixelstudies/pixelcomp/huffman"
)

func toyStatistics(t *testing.T) *Statistics {
	t.Helper()
	producer := NewProducer("toy", nil)
	for _, letter := range []int{0, 0, 1, 2} {
		producer.AddCount(letter)
	}
	stat, err := producer.Produce()
	if err != nil {
		t.Fatalf("%v", err)
	}
	return stat
}

func TestStatisticsValues(t *testing.T) {
	stat := toyStatistics(t)
	if stat.Name() != "toy" || stat.Counts() != 4 {
		t.Errorf("name = %q, counts = %d", stat.Name(), stat.Counts())
	}
	if math.Abs(stat.Entropy()-1.5) > 1e-12 {
		t.Errorf("entropy = %f", stat.Entropy())
	}
	p, err := stat.Probability(0)
	if err != nil || p != 0.5 {
		t.Errorf("p(0) = %f, err = %v", p, err)
	}
	if _, err := stat.Probability(9); !errors.Is(err, &CodecError{Kind: UnknownLetter}) {
		t.Errorf("err = %v", err)
	}
	freq, err := stat.Frequency(1)
	if err != nil || freq != 1 {
		t.Errorf("freq(1) = %f, err = %v", freq, err)
	}
}

func TestStatisticsSerializationRoundTrip(t *testing.T) {
	stat := toyStatistics(t)
	var buf bytes.Buffer
	if err := stat.WriteTo(&buf); err != nil {
		t.Fatalf("%v", err)
	}
	if !strings.Contains(buf.String(), "1.50000e+00") {
		t.Errorf("entropy not in scientific form:\n%s", buf.String())
	}

	parsed, err := ReadStatistics(bufio.NewReader(&buf))
	if err != nil {
		t.Fatalf("%v", err)
	}
	if parsed.Name() != stat.Name() || parsed.Counts() != stat.Counts() {
		t.Errorf("name = %q, counts = %d", parsed.Name(), parsed.Counts())
	}
	if len(parsed.Alphabet()) != len(stat.Alphabet()) {
		t.Fatalf("alphabet = %v", parsed.Alphabet())
	}
	for _, letter := range stat.Alphabet() {
		wantP, _ := stat.Probability(letter)
		gotP, err := parsed.Probability(letter)
		if err != nil {
			t.Fatalf("%v", err)
		}
		if math.Abs(gotP-wantP) > 1e-5 {
			t.Errorf("letter %d: p = %g, want %g", letter, gotP, wantP)
		}
		wantCode, _ := stat.CodeOf(letter)
		gotCode, err := parsed.CodeOf(letter)
		if err != nil || gotCode != wantCode {
			t.Errorf("letter %d: code = %q, want %q", letter, gotCode, wantCode)
		}
	}
}

func TestReadStatisticsToleratesBOMAndCR(t *testing.T) {
	stat := toyStatistics(t)
	var buf bytes.Buffer
	if err := stat.WriteTo(&buf); err != nil {
		t.Fatalf("%v", err)
	}
	text := "\xef\xbb\xbf" + strings.ReplaceAll(buf.String(), "\n", "\r\n")
	if _, err := ReadStatistics(bufio.NewReader(strings.NewReader(text))); err != nil {
		t.Fatalf("%v", err)
	}
}

func TestReadStatisticsTruncation(t *testing.T) {
	stat := toyStatistics(t)
	var buf bytes.Buffer
	if err := stat.WriteTo(&buf); err != nil {
		t.Fatalf("%v", err)
	}
	text := buf.String()
	truncatedText := text[:len(text)-25]
	_, err := ReadStatistics(bufio.NewReader(strings.NewReader(truncatedText)))
	if !errors.Is(err, &CodecError{Kind: DictionaryParse}) {
		t.Errorf("err = %v", err)
	}

	// A clean end of stream yields io.EOF rather than a parsed block.
	if _, err := ReadStatistics(bufio.NewReader(strings.NewReader("\n\n"))); err == nil {
		t.Errorf("expected EOF")
	}
}

func TestNewStatisticsValidation(t *testing.T) {
	table, err := huffman.New(map[int]uint64{0: 1, 1: 1})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if _, err := NewStatistics("bad", 2, map[int]float64{0: 0.9, 1: 0.3}, 1, table); err == nil {
		t.Errorf("inconsistent probabilities accepted")
	}
	if _, err := NewStatistics("bad", 2, map[int]float64{0: 0.5, 1: 0.5}, -1, table); err == nil {
		t.Errorf("negative entropy accepted")
	}
	if _, err := NewStatistics("bad", 0, map[int]float64{0: 0.5, 1: 0.5}, 1, table); err == nil {
		t.Errorf("zero counts accepted")
	}
	if _, err := NewStatistics("ok", 2, map[int]float64{0: 0.5, 1: 0.5}, 1, table); err != nil {
		t.Errorf("%v", err)
	}
}

func TestEncodeDecodeLetters(t *testing.T) {
	stat := toyStatistics(t)
	letters := []int{0, 2, 1, 0, 0, 2}
	pkg := NewPackage()
	for _, letter := range letters {
		if err := stat.EncodeLetter(letter, pkg); err != nil {
			t.Fatalf("%v", err)
		}
	}
	iter := pkg.Iter()
	for _, want := range letters {
		got, err := stat.DecodeLetter(iter)
		if err != nil {
			t.Fatalf("%v", err)
		}
		if got != want {
			t.Errorf("decoded %d, want %d", got, want)
		}
	}
	if !iter.AtEnd() {
		t.Errorf("iterator not at end")
	}
	if err := stat.EncodeLetter(42, pkg); !errors.Is(err, &CodecError{Kind: UnknownLetter}) {
		t.Errorf("err = %v", err)
	}
}

func TestExpectedLengthWithinEntropyBound(t *testing.T) {
	producer := NewProducer("bound", nil)
	for letter := 0; letter < 20; letter++ {
		for n := 0; n < letter*letter+1; n++ {
			producer.AddCount(letter)
		}
	}
	stat, err := producer.Produce()
	if err != nil {
		t.Fatalf("%v", err)
	}
	expectedLength := 0.0
	for _, letter := range stat.Alphabet() {
		p, _ := stat.Probability(letter)
		code, _ := stat.CodeOf(letter)
		expectedLength += p * float64(code.NumBits())
	}
	h := stat.Entropy()
	if expectedLength < h || expectedLength >= h+1 {
		t.Errorf("expected length %f outside [%f, %f)", expectedLength, h, h+1)
	}
}
