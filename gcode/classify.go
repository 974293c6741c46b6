package gcode

import (
	"fmt"
	"sort"
)

// UnsupportedError is returned by Classify for command words it does not
// implement.
type UnsupportedError struct {
	Word Word
}

func (e *UnsupportedError) Error() string {
	return "unsupported code: " + e.Word.String()
}

var motionCodes = map[float64]MotionKind{
	0:  MotionRapid,
	1:  MotionLinear,
	2:  MotionArcCW,
	3:  MotionArcCCW,
	28: MotionHome,

	38.2: MotionProbe,
	38.3: MotionProbe,
	38.4: MotionProbe,
	38.5: MotionProbe,
}

var settingCodes = map[Word]SettingKind{
	{W: 'G', Arg: 17}:   SetPlaneXY,
	{W: 'G', Arg: 18}:   SetPlaneXZ,
	{W: 'G', Arg: 19}:   SetPlaneYZ,
	{W: 'G', Arg: 20}:   SetUnitsInch,
	{W: 'G', Arg: 21}:   SetUnitsMM,
	{W: 'G', Arg: 90}:   SetAbsolute,
	{W: 'G', Arg: 91}:   SetRelative,
	{W: 'G', Arg: 90.1}: SetArcAbsolute,
	{W: 'G', Arg: 91.1}: SetArcIncremental,
	{W: 'M', Arg: 82}:   SetExtrudeAbsolute,
	{W: 'M', Arg: 83}:   SetExtrudeRelative,
	{W: 'G', Arg: 92}:   SetPosition,
}

// ignoredCodes are understood but do not affect the tool path. Codes
// marked ownArgs take the line's argument words as their own parameters
// (M203 X500 is a limit, not a move); with the others, axis and feed words
// still apply to the modal motion.
var ignoredCodes = map[Word]ignoreMode{
	{W: 'G', Arg: 29}:   ownArgs, // bed probing
	{W: 'G', Arg: 40}:   passive,
	{W: 'G', Arg: 49}:   passive,
	{W: 'G', Arg: 54}:   passive,
	{W: 'G', Arg: 55}:   passive,
	{W: 'G', Arg: 56}:   passive,
	{W: 'G', Arg: 57}:   passive,
	{W: 'G', Arg: 58}:   passive,
	{W: 'G', Arg: 59}:   passive,
	{W: 'G', Arg: 59.1}: passive,
	{W: 'G', Arg: 59.2}: passive,
	{W: 'G', Arg: 59.3}: passive,
	{W: 'G', Arg: 61}:   passive,
	{W: 'G', Arg: 64}:   passive,
	{W: 'G', Arg: 80}:   passive,
	{W: 'G', Arg: 94}:   passive,

	{W: 'M', Arg: 0}:   passive,
	{W: 'M', Arg: 1}:   passive,
	{W: 'M', Arg: 2}:   passive,
	{W: 'M', Arg: 3}:   passive,
	{W: 'M', Arg: 4}:   passive,
	{W: 'M', Arg: 5}:   passive,
	{W: 'M', Arg: 6}:   passive,
	{W: 'M', Arg: 7}:   passive,
	{W: 'M', Arg: 8}:   passive,
	{W: 'M', Arg: 9}:   passive,
	{W: 'M', Arg: 17}:  ownArgs,
	{W: 'M', Arg: 18}:  ownArgs,
	{W: 'M', Arg: 23}:  ownArgs,
	{W: 'M', Arg: 28}:  ownArgs,
	{W: 'M', Arg: 30}:  passive,
	{W: 'M', Arg: 32}:  ownArgs,
	{W: 'M', Arg: 84}:  ownArgs,
	{W: 'M', Arg: 104}: ownArgs,
	{W: 'M', Arg: 105}: ownArgs,
	{W: 'M', Arg: 106}: ownArgs,
	{W: 'M', Arg: 107}: ownArgs,
	{W: 'M', Arg: 109}: ownArgs,
	{W: 'M', Arg: 110}: ownArgs,
	{W: 'M', Arg: 114}: ownArgs,
	{W: 'M', Arg: 115}: ownArgs,
	{W: 'M', Arg: 117}: ownArgs,
	{W: 'M', Arg: 118}: ownArgs,
	{W: 'M', Arg: 140}: ownArgs,
	{W: 'M', Arg: 141}: ownArgs,
	{W: 'M', Arg: 190}: ownArgs,
	{W: 'M', Arg: 191}: ownArgs,
	{W: 'M', Arg: 201}: ownArgs,
	{W: 'M', Arg: 203}: ownArgs,
	{W: 'M', Arg: 204}: ownArgs,
	{W: 'M', Arg: 205}: ownArgs,
	{W: 'M', Arg: 220}: ownArgs,
	{W: 'M', Arg: 221}: ownArgs,
	{W: 'M', Arg: 400}: ownArgs,
	{W: 'M', Arg: 420}: ownArgs,
	{W: 'M', Arg: 500}: ownArgs,
	{W: 'M', Arg: 501}: ownArgs,
	{W: 'M', Arg: 502}: ownArgs,
	{W: 'M', Arg: 503}: ownArgs,
	{W: 'M', Arg: 928}: ownArgs,
}

type ignoreMode byte

const (
	passive ignoreMode = iota + 1
	ownArgs
)

// moveLetters imply a motion when they appear without a motion code.
const moveLetters = "XYZEIJKR"

// Classify assigns meaning to a tokenized line. It always returns a
// Command; the errors describe words that were dropped along the way
// (*UnsupportedError, or an error wrapping ErrInvalidBlock).
func Classify(ln Line) (Command, []error) {
	if ln.Empty() {
		return Noop{Reason: NoopEmpty}, nil
	}
	if err := ln.Words.Validate(); err != nil {
		return Noop{Reason: NoopInvalid, Code: ln.Words.String()}, []error{err}
	}

	var (
		errs        []error
		params      Params
		settings    []SettingKind
		motion      MotionKind
		hasMotion   bool
		machine     bool
		dwell       bool
		owned       bool
		unsupported Word
	)
	for _, w := range ln.Words {
		switch w.W {
		case 'G', 'M':
		case 'T':
			continue
		default:
			params.Set(w.W, w.Arg)
			continue
		}

		if k, ok := motionCodes[w.Arg]; ok && w.W == 'G' {
			motion, hasMotion = k, true
			continue
		}
		if k, ok := settingCodes[w]; ok {
			settings = append(settings, k)
			continue
		}
		if w.Code('G', 4) {
			dwell = true
			continue
		}
		if w.Code('G', 53) {
			machine = true
			continue
		}
		if mode := ignoredCodes[w]; mode != 0 {
			owned = owned || mode == ownArgs
			continue
		}
		if len(errs) == 0 {
			unsupported = w
		}
		errs = append(errs, &UnsupportedError{Word: w})
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i] < settings[j] })

	if machine && (motion == MotionArcCW || motion == MotionArcCCW) && hasMotion {
		err := fmt.Errorf("%w: G53 with %s motion", ErrInvalidBlock, motion)
		return Noop{Reason: NoopInvalid, Code: ln.Words.String()}, append(errs, err)
	}

	// axis words with no motion code move in the modal motion mode, unless
	// a code on the line consumes them
	moves := params.HasAny(moveLetters) && len(errs) == 0 && !owned && !dwell && !positions(settings)
	switch {
	case hasMotion:
		return Motion{Kind: motion, Params: params, Settings: settings, Machine: machine}, errs
	case moves:
		return Motion{Inherit: true, Params: params, Settings: settings, Machine: machine}, nil
	case len(settings) > 0:
		return Setting{Kinds: settings, Params: params}, errs
	case dwell:
		return Noop{Reason: NoopDwell, Code: "G4"}, errs
	case params.Has('F') && len(errs) == 0 && !owned:
		return Setting{Params: params}, nil
	case len(errs) > 0:
		return Noop{Reason: NoopUnsupported, Code: unsupported.String()}, errs
	}
	return Noop{Reason: NoopIgnored, Code: ln.Words[0].String()}, nil
}

func positions(settings []SettingKind) bool {
	for _, k := range settings {
		if k == SetPosition {
			return true
		}
	}
	return false
}
