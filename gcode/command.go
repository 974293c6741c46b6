package gcode

import (
	"fmt"
)

// Command is the classified meaning of one line: exactly one of
// Motion, Setting or Noop.
type Command interface {
	command()
}

type MotionKind byte

const (
	MotionRapid MotionKind = iota // G0
	MotionLinear                  // G1
	MotionArcCW                   // G2
	MotionArcCCW                  // G3
	// MotionHome moves the named axes (all when none are named) to the
	// machine origin.
	MotionHome // G28
	// MotionProbe is a straight probing move (G38.2-G38.5). The path is
	// the full programmed travel.
	MotionProbe
)

func (k MotionKind) String() string {
	switch k {
	case MotionRapid:
		return "rapid"
	case MotionLinear:
		return "linear"
	case MotionArcCW:
		return "arc-cw"
	case MotionArcCCW:
		return "arc-ccw"
	case MotionHome:
		return "home"
	case MotionProbe:
		return "probe"
	}
	return fmt.Sprintf("MotionKind(%d)", k)
}

// SettingKind values are declared in the order they take effect when
// several appear on one line.
type SettingKind byte

const (
	SetPlaneXY SettingKind = iota // G17
	SetPlaneXZ                    // G18
	SetPlaneYZ                    // G19
	SetUnitsInch                  // G20
	SetUnitsMM                    // G21
	SetAbsolute                   // G90
	SetRelative                   // G91
	SetArcAbsolute                // G90.1
	SetArcIncremental             // G91.1
	SetExtrudeAbsolute            // M82
	SetExtrudeRelative            // M83
	SetPosition                   // G92
)

var settingNames = [...]string{
	SetPlaneXY:         "G17",
	SetPlaneXZ:         "G18",
	SetPlaneYZ:         "G19",
	SetUnitsInch:       "G20",
	SetUnitsMM:         "G21",
	SetAbsolute:        "G90",
	SetRelative:        "G91",
	SetArcAbsolute:     "G90.1",
	SetArcIncremental:  "G91.1",
	SetExtrudeAbsolute: "M82",
	SetExtrudeRelative: "M83",
	SetPosition:        "G92",
}

func (k SettingKind) String() string {
	if int(k) < len(settingNames) {
		return settingNames[k]
	}
	return fmt.Sprintf("SettingKind(%d)", k)
}

type NoopReason byte

const (
	NoopEmpty       NoopReason = iota // blank or comment-only
	NoopDwell                         // G4
	NoopIgnored                       // known code with no geometric effect
	NoopUnsupported                   // unknown or unimplemented code
	NoopInvalid                       // block failed validation
)

func (r NoopReason) String() string {
	switch r {
	case NoopEmpty:
		return "empty"
	case NoopDwell:
		return "dwell"
	case NoopIgnored:
		return "ignored"
	case NoopUnsupported:
		return "unsupported"
	case NoopInvalid:
		return "invalid"
	}
	return fmt.Sprintf("NoopReason(%d)", r)
}

// Motion moves the tool. Axis words absent from Params hold their
// previous value; defaulting is left to the resolver.
type Motion struct {
	Kind MotionKind
	// Inherit is set when the line had axis words but no motion code; the
	// active motion mode applies and Kind is meaningless.
	Inherit bool
	Params  Params
	// Settings from the same line, applied before the motion.
	Settings []SettingKind
	// Machine is set by G53: axis words are absolute machine coordinates
	// for this line only.
	Machine bool
}

// Setting changes modal state without moving.
type Setting struct {
	Kinds  []SettingKind
	Params Params
}

// Noop has no effect on state or geometry.
type Noop struct {
	Reason NoopReason
	Code   string
}

func (Motion) command()  {}
func (Setting) command() {}
func (Noop) command()    {}

// Params holds argument words by letter. The zero value is empty.
type Params struct {
	set  uint32
	vals [26]float64
}

func (p *Params) Set(letter byte, val float64) {
	i := letter - 'A'
	p.set |= 1 << i
	p.vals[i] = val
}

// Get returns the value of letter and whether it was present.
func (p Params) Get(letter byte) (float64, bool) {
	i := letter - 'A'
	if i >= 26 || p.set&(1<<i) == 0 {
		return 0, false
	}
	return p.vals[i], true
}

func (p Params) Has(letter byte) bool {
	_, ok := p.Get(letter)
	return ok
}

// HasAny reports whether any of letters is present.
func (p Params) HasAny(letters string) bool {
	for i := 0; i < len(letters); i++ {
		if p.Has(letters[i]) {
			return true
		}
	}
	return false
}

func (p Params) Len() int {
	var n int
	for s := p.set; s != 0; s &= s - 1 {
		n++
	}
	return n
}

func (p Params) String() string {
	var b Block
	for i := byte(0); i < 26; i++ {
		if p.set&(1<<i) != 0 {
			b = append(b, Word{W: 'A' + i, Arg: p.vals[i]})
		}
	}
	return b.String()
}
