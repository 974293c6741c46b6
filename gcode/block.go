package gcode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBlock is wrapped by Validate errors.
var ErrInvalidBlock = errors.New("invalid block")

// Block is the ordered word sequence of one line.
type Block []Word

func (b Block) Arg(w byte) (bool, float64) {
	for _, g := range b {
		if g.W == w {
			return true, g.Arg
		}
	}
	return false, 0
}

// Args returns the words that are not command words.
func (b Block) Args() Block {
	res := make(Block, 0, len(b))
	for _, g := range b {
		if g.ModalGroup() == ModalGroupNone && g.W != 'G' && g.W != 'M' {
			res = append(res, g)
		}
	}
	return res
}

func (b Block) Clone() Block {
	c := make(Block, len(b))
	copy(c, b)
	return c
}

func (b Block) HasModal() bool {
	for _, g := range b {
		if g.ModalGroup() != ModalGroupNone {
			return true
		}
	}
	return false
}

// Validate checks that no argument word repeats and that no two command
// words share a modal group.
func (b Block) Validate() error {
	var checkWord [256]bool
	var checkModal [256]bool

	var m ModalGroup
	for _, g := range b {
		if !g.IsValid() {
			return fmt.Errorf("%w: invalid word %q", ErrInvalidBlock, g.W)
		}
		if g.W != 'G' && g.W != 'M' && checkWord[g.W] {
			return fmt.Errorf("%w: word %c was repeated", ErrInvalidBlock, g.W)
		}
		checkWord[g.W] = true
		m = g.ModalGroup()
		if m != ModalGroupNone && m != ModalGroupFeedRate && checkModal[m] {
			return fmt.Errorf("%w: multiple words from modal group %s", ErrInvalidBlock, m)
		}
		checkModal[m] = true
	}

	return nil
}

func (b Block) String() string {
	var sb strings.Builder
	for i, w := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(w.String())
	}
	return sb.String()
}
