package mode

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMod reports a modifier token with no registered flag.
var ErrUnknownMod = errors.New("unknown mod")

// Mods is a bit set of gameplay modifiers. Only the clock-rate mods
// change difficulty math; the rest are recognized so callers can pass a
// full mod list without pre-filtering.
type Mods uint32

// Modifier flags, one bit each.
const (
	ModNoFail Mods = 1 << iota
	ModEasy
	ModHidden
	ModHardRock
	ModHalfTime
	ModDoubleTime
	ModNightcore
	ModFlashlight
)

// modTokens maps wire acronyms to flags, in canonical output order.
var modTokens = []struct {
	token string
	flag  Mods
}{
	{"NF", ModNoFail},
	{"EZ", ModEasy},
	{"HD", ModHidden},
	{"HR", ModHardRock},
	{"HT", ModHalfTime},
	{"DT", ModDoubleTime},
	{"NC", ModNightcore},
	{"FL", ModFlashlight},
}

// ParseMods folds a list of acronym tokens into a mod set. Tokens are
// case-insensitive; an unrecognized token fails the whole list.
func ParseMods(tokens []string) (Mods, error) {
	var m Mods
next:
	for _, t := range tokens {
		upper := strings.ToUpper(strings.TrimSpace(t))
		for _, mt := range modTokens {
			if mt.token == upper {
				m |= mt.flag
				continue next
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownMod, t)
	}
	return m, nil
}

// Has reports whether every flag in f is set.
func (m Mods) Has(f Mods) bool {
	return m&f == f
}

// ClockRate returns the playback speed multiplier: 1.5 for double time
// and nightcore, 0.75 for half time, 1.0 otherwise.
func (m Mods) ClockRate() float64 {
	switch {
	case m.Has(ModDoubleTime) || m.Has(ModNightcore):
		return 1.5
	case m.Has(ModHalfTime):
		return 0.75
	default:
		return 1.0
	}
}

// Tokens returns the set's acronyms in canonical order.
func (m Mods) Tokens() []string {
	var out []string
	for _, mt := range modTokens {
		if m.Has(mt.flag) {
			out = append(out, mt.token)
		}
	}
	return out
}

// String renders the set as concatenated acronyms, "NM" when empty.
func (m Mods) String() string {
	tokens := m.Tokens()
	if len(tokens) == 0 {
		return "NM"
	}
	return strings.Join(tokens, "")
}
