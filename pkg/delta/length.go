package delta

import (
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rivo/uniseg"
)

// Unit selects how string inserts are measured.
type Unit int

const (
	// UnitUTF16 counts UTF-16 code units, matching offsets reported by
	// browser selections.
	UnitUTF16 Unit = iota
	UnitRune
	UnitGrapheme
)

func (u Unit) String() string {
	switch u {
	case UnitUTF16:
		return "utf16"
	case UnitRune:
		return "rune"
	case UnitGrapheme:
		return "grapheme"
	default:
		return "unknown"
	}
}

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "", "utf16", "utf-16":
		return UnitUTF16, nil
	case "rune", "codepoint":
		return UnitRune, nil
	case "grapheme":
		return UnitGrapheme, nil
	default:
		return UnitUTF16, errors.Errorf("unknown length unit %q", s)
	}
}

// TextLength measures s in unit u.
func TextLength(s string, u Unit) int {
	switch u {
	case UnitRune:
		return utf8.RuneCountInString(s)
	case UnitGrapheme:
		return uniseg.GraphemeClusterCount(s)
	default:
		n := 0
		for _, r := range s {
			n += utf16Width(r)
		}
		return n
	}
}

func utf16Width(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// OpLength is the length an op contributes to a document. Embeds count as
// one unit.
func OpLength(op Op, u Unit) int {
	switch {
	case op.IsDelete():
		return op.Delete
	case op.IsRetain():
		return op.Retain
	case op.Insert != nil:
		if s, ok := op.Insert.(string); ok {
			return TextLength(s, u)
		}
		return 1
	default:
		return 0
	}
}

// Length sums the op lengths of d.
func Length(d Delta, u Unit) int {
	n := 0
	for _, op := range d {
		n += OpLength(op, u)
	}
	return n
}

// sliceText returns the part of s starting at offset with length n, both
// measured in unit u. A surrogate pair split by a UTF-16 boundary stays with
// the slice that contains its first half.
func sliceText(s string, offset, n int, u Unit) string {
	if n <= 0 {
		return ""
	}
	if u == UnitGrapheme {
		var b strings.Builder
		pos := 0
		g := uniseg.NewGraphemes(s)
		for g.Next() {
			if pos >= offset+n {
				break
			}
			if pos >= offset {
				b.WriteString(g.Str())
			}
			pos++
		}
		return b.String()
	}

	start, end := -1, len(s)
	pos := 0
	for i, r := range s {
		if start < 0 && pos >= offset {
			start = i
		}
		if pos >= offset+n {
			end = i
			break
		}
		if u == UnitRune {
			pos++
		} else {
			pos += utf16Width(r)
		}
	}
	if start < 0 {
		return ""
	}
	return s[start:end]
}
