package optimizer

import (
	"strconv"
	"strings"
)

// Pass is a bit mask of optimizer behaviors.
type Pass uint

const (
	PASS_TRAILING        = Pass(1 << 0) // trailing
	PASS_TAPS            = Pass(1 << 1) // taps
	PASS_DEAD_END        = Pass(1 << 2) // dead-end
	PASS_FAST_ROUNDING   = Pass(1 << 3) // fast-rounding
	PASS_UNITY_ADD       = Pass(1 << 4) // unity-add
	PASS_UNITY_ASSIGN    = Pass(1 << 5) // unity-assign
	PASS_REDUNDANT_WRITE = Pass(1 << 6) // redundant-write

	PASS_NONE        = Pass(0)
	PASS_ALL         = Pass(0x7f)
	PASS_EXACT       = PASS_TRAILING | PASS_TAPS | PASS_DEAD_END | PASS_REDUNDANT_WRITE
	PASS_APPROXIMATE = PASS_FAST_ROUNDING | PASS_UNITY_ADD | PASS_UNITY_ASSIGN
)

var passNames = []struct {
	pass Pass
	name string
}{
	{PASS_TRAILING, "trailing"},
	{PASS_TAPS, "taps"},
	{PASS_DEAD_END, "dead-end"},
	{PASS_FAST_ROUNDING, "fast-rounding"},
	{PASS_UNITY_ADD, "unity-add"},
	{PASS_UNITY_ASSIGN, "unity-assign"},
	{PASS_REDUNDANT_WRITE, "redundant-write"},
}

// Has returns true if all the passes of other are enabled.
func (pass Pass) Has(other Pass) bool {
	return pass&other == other
}

// Exact returns true if the passes preserve the output bit for bit.
func (pass Pass) Exact() bool {
	return pass&PASS_APPROXIMATE == 0
}

// String returns the pass names joined by '|'.
func (pass Pass) String() string {
	var names []string
	for _, entry := range passNames {
		if pass&entry.pass != 0 {
			names = append(names, entry.name)
		}
	}
	if rest := pass &^ PASS_ALL; rest != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParsePass parses a numeric mask, or pass names separated by ',' or '|'.
// The names 'all', 'exact' and 'none' select the pass groups.
func ParsePass(text string) (pass Pass, err error) {
	value, perr := strconv.ParseUint(text, 0, 8)
	if perr == nil {
		if Pass(value)&^PASS_ALL != 0 {
			err = ErrPassUnknown
			return
		}
		pass = Pass(value)
		return
	}

	for _, name := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '|' }) {
		switch name = strings.TrimSpace(name); name {
		case "all":
			pass |= PASS_ALL
			continue
		case "exact":
			pass |= PASS_EXACT
			continue
		case "none":
			continue
		}
		found := false
		for _, entry := range passNames {
			if entry.name == name {
				pass |= entry.pass
				found = true
			}
		}
		if !found {
			err = ErrPassUnknown
			return
		}
	}

	return
}

// Set implements the command line flag interface.
func (pass *Pass) Set(text string) (err error) {
	value, err := ParsePass(text)
	if err != nil {
		return
	}
	*pass = value
	return
}

// Type implements the command line flag interface.
func (pass *Pass) Type() string {
	return "passes"
}
