// Package huffman builds prefix-free binary codes from letter frequencies.
// The letter type is any integer type; tables are deterministic: two
// constructions from the same frequency map yield identical codes.
package huffman

import (
	"container/heap"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MaxCodeBits is the maximum length of a single code.
const MaxCodeBits = 64

// ErrCodeTooLong is returned when a code would exceed MaxCodeBits bits.
var ErrCodeTooLong = fmt.Errorf("huffman: code is longer than %d bits", MaxCodeBits)

// A Code is a prefix-free bit sequence. Bits are stored in append order at
// increasing significance: the first branch taken in the tree occupies the
// least significant bit.
type Code struct {
	bits  uint64
	nBits int
}

// NewCode builds a code from its raw representation.
func NewCode(bits uint64, nBits int) (Code, error) {
	if nBits < 0 || nBits > MaxCodeBits {
		return Code{}, ErrCodeTooLong
	}
	if nBits < MaxCodeBits && bits >= uint64(1)<<nBits {
		return Code{}, fmt.Errorf("huffman: bits 0x%x do not fit in %d bits", bits, nBits)
	}
	return Code{bits: bits, nBits: nBits}, nil
}

func (c Code) NumBits() int { return c.nBits }
func (c Code) Bits() uint64 { return c.bits }

// Append extends the code by one bit.
func (c Code) Append(one bool) (Code, error) {
	if c.nBits+1 > MaxCodeBits {
		return Code{}, ErrCodeTooLong
	}
	if one {
		c.bits |= uint64(1) << c.nBits
	}
	c.nBits++
	return c, nil
}

// String renders the code as '0'/'1' characters in append order.
func (c Code) String() string {
	var sb strings.Builder
	for n := 0; n < c.nBits; n++ {
		if (c.bits>>n)&1 == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// ParseCode is the inverse of String.
func ParseCode(s string) (Code, error) {
	var code Code
	var err error
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			code, err = code.Append(false)
		case '1':
			code, err = code.Append(true)
		default:
			return Code{}, fmt.Errorf("huffman: invalid code %q", s)
		}
		if err != nil {
			return Code{}, err
		}
	}
	return code, nil
}

// Table is a bijection between letters and codes.
type Table[L constraints.Integer] struct {
	codes   map[L]Code
	letters map[Code]L
}

// treeNode is an element of the flat construction tree. Leaves reference
// the sorted letter slice; internal nodes reference their children by
// index. A smaller index breaks frequency ties, so earlier-inserted nodes
// are merged first and the table is reproducible.
type treeNode struct {
	frequency   uint64
	leaf        int
	left, right int
}

type nodeQueue struct {
	nodes []treeNode
	order []int
}

func (q *nodeQueue) Len() int { return len(q.order) }
func (q *nodeQueue) Less(i, j int) bool {
	a, b := q.order[i], q.order[j]
	if q.nodes[a].frequency != q.nodes[b].frequency {
		return q.nodes[a].frequency < q.nodes[b].frequency
	}
	return a < b
}
func (q *nodeQueue) Swap(i, j int) { q.order[i], q.order[j] = q.order[j], q.order[i] }
func (q *nodeQueue) Push(x any)    { q.order = append(q.order, x.(int)) }
func (q *nodeQueue) Pop() any {
	x := q.order[len(q.order)-1]
	q.order = q.order[:len(q.order)-1]
	return x
}

// New constructs the Huffman table for the given frequency map. Letters
// with zero frequency receive weight one so that every letter of the
// alphabet is reachable.
func New[L constraints.Integer](frequencies map[L]uint64) (*Table[L], error) {
	if len(frequencies) == 0 {
		return nil, fmt.Errorf("huffman: empty alphabet")
	}
	letters := maps.Keys(frequencies)
	slices.Sort(letters)

	nodes := make([]treeNode, 0, 2*len(letters)-1)
	q := &nodeQueue{}
	for i, letter := range letters {
		frequency := frequencies[letter]
		if frequency == 0 {
			frequency = 1
		}
		nodes = append(nodes, treeNode{frequency: frequency, leaf: i, left: -1, right: -1})
		q.order = append(q.order, i)
	}
	q.nodes = nodes
	heap.Init(q)

	for q.Len() > 1 {
		first := heap.Pop(q).(int)
		second := heap.Pop(q).(int)
		q.nodes = append(q.nodes, treeNode{
			frequency: q.nodes[first].frequency + q.nodes[second].frequency,
			leaf:      -1,
			left:      first,
			right:     second,
		})
		heap.Push(q, len(q.nodes)-1)
	}
	nodes = q.nodes
	root := q.order[0]

	t := &Table[L]{
		codes:   make(map[L]Code, len(letters)),
		letters: make(map[Code]L, len(letters)),
	}
	var walk func(index int, code Code) error
	walk = func(index int, code Code) error {
		node := nodes[index]
		if node.leaf >= 0 {
			letter := letters[node.leaf]
			t.codes[letter] = code
			t.letters[code] = letter
			return nil
		}
		left, err := code.Append(false)
		if err != nil {
			return err
		}
		if err := walk(node.left, left); err != nil {
			return err
		}
		right, err := code.Append(true)
		if err != nil {
			return err
		}
		return walk(node.right, right)
	}
	if err := walk(root, Code{}); err != nil {
		return nil, err
	}
	return t, nil
}

// NewFromCodes builds a table from an explicit letter -> code assignment,
// as read back from a dictionary file.
func NewFromCodes[L constraints.Integer](codes map[L]Code) (*Table[L], error) {
	if len(codes) == 0 {
		return nil, fmt.Errorf("huffman: empty alphabet")
	}
	t := &Table[L]{
		codes:   make(map[L]Code, len(codes)),
		letters: make(map[Code]L, len(codes)),
	}
	for letter, code := range codes {
		if previous, ok := t.letters[code]; ok {
			return nil, fmt.Errorf("huffman: code %q assigned to both %d and %d", code, previous, letter)
		}
		t.codes[letter] = code
		t.letters[code] = letter
	}
	return t, nil
}

// Len returns the number of letters in the table.
func (t *Table[L]) Len() int { return len(t.codes) }

// CodeOf returns the code of a letter.
func (t *Table[L]) CodeOf(letter L) (Code, bool) {
	code, ok := t.codes[letter]
	return code, ok
}

// LetterOf returns the letter with the exact given code.
func (t *Table[L]) LetterOf(code Code) (L, bool) {
	letter, ok := t.letters[code]
	return letter, ok
}

// Letters returns the alphabet in ascending order.
func (t *Table[L]) Letters() []L {
	letters := maps.Keys(t.codes)
	slices.Sort(letters)
	return letters
}
