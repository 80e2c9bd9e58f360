package xferlog

import (
	"math"
	"strconv"
	"strings"
)

// FieldSpec describes one position of the line grammar.
type FieldSpec struct {
	Field       Field
	Name        string
	Delim       Delim
	Description string

	// Absent marks the position that must not hold a token.
	Absent bool

	check func(string) bool
}

// Check reports whether text is acceptable for this position.
// An Absent position accepts nothing.
func (s FieldSpec) Check(text string) bool {
	if s.Absent || s.check == nil {
		return false
	}
	return s.check(text)
}

var weekdays = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var months = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// grammar is indexed by Field-1.
var grammar = [NumFields]FieldSpec{
	{Field: FieldWeekday, Name: "weekday", Description: "Mon|Tue|Wed|Thu|Fri|Sat|Sun", check: oneOf(weekdays[:])},
	{Field: FieldMonth, Name: "month", Description: "Jan|Feb|...|Dec", check: oneOf(months[:])},
	{Field: FieldDay, Name: "day", Description: "integer 0-31", check: intRange(0, 31)},
	{Field: FieldHour, Name: "hour", Delim: DelimColon, Description: "2 digits, 00-24", check: fixedWidth(2, intRange(0, 24))},
	{Field: FieldMinute, Name: "minute", Delim: DelimColon, Description: "2 digits, 00-60", check: fixedWidth(2, intRange(0, 60))},
	{Field: FieldSecond, Name: "second", Description: "2 digits, 00-60", check: fixedWidth(2, intRange(0, 60))},
	{Field: FieldYear, Name: "year", Description: "integer 1980-2100", check: intRange(1980, 2100)},
	{Field: FieldTransferTime, Name: "transfer-time", Description: "integer >= 0 (seconds)", check: intRange(0, math.MaxInt64)},
	{Field: FieldRemoteHost, Name: "remote-host", Description: "any", check: nonEmpty},
	{Field: FieldFileSize, Name: "file-size", Description: "integer >= 0 (bytes)", check: intRange(0, math.MaxInt64)},
	{Field: FieldFilename, Name: "filename", Description: "any", check: nonEmpty},
	{Field: FieldTransferType, Name: "transfer-type", Description: "a|b", check: oneByte("ab")},
	{Field: FieldActionFlag, Name: "action-flag", Description: "_", check: oneByte("_")},
	{Field: FieldDirection, Name: "direction", Description: "i|o", check: oneByte("io")},
	{Field: FieldAccessMode, Name: "access-mode", Description: "r", check: oneByte("r")},
	{Field: FieldUsername, Name: "username", Description: "any", check: nonEmpty},
	{Field: FieldGroup, Name: "group", Description: "any", check: nonEmpty},
	{Field: FieldAuthMethod, Name: "auth-method", Description: "0|1", check: oneByte("01")},
	{Field: FieldIdent, Name: "ident", Description: "any", check: nonEmpty},
	{Field: FieldTerminator, Name: "terminator", Description: "end of line", Absent: true},
}

// Fields returns a copy of the grammar in line order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(grammar))
	copy(out, grammar[:])
	return out
}

// Spec returns the grammar entry for f.
func Spec(f Field) (FieldSpec, bool) {
	if f < FieldWeekday || f > FieldTerminator {
		return FieldSpec{}, false
	}
	return grammar[f-1], true
}

// CheckField reports whether text is acceptable at position f.
func CheckField(f Field, text string) bool {
	spec, ok := Spec(f)
	if !ok {
		return false
	}
	return spec.Check(text)
}

// Validate checks a raw line and returns the first field that fails.
// The line terminator, if any, is ignored.
func Validate(line string) Result {
	t := NewTokenizer(line)
	for _, spec := range grammar {
		tok, ok := t.Next()
		if spec.Absent {
			if ok {
				return Invalid(spec.Field)
			}
			continue
		}
		if !ok || !spec.Check(tok.Text) {
			return Invalid(spec.Field)
		}
	}
	return Valid
}

func oneOf(set []string) func(string) bool {
	return func(s string) bool {
		for _, v := range set {
			if s == v {
				return true
			}
		}
		return false
	}
}

func oneByte(allowed string) func(string) bool {
	return func(s string) bool {
		return len(s) == 1 && strings.IndexByte(allowed, s[0]) >= 0
	}
}

func nonEmpty(s string) bool {
	return s != ""
}

func fixedWidth(n int, next func(string) bool) func(string) bool {
	return func(s string) bool {
		return len(s) == n && next(s)
	}
}

func intRange(lo, hi int64) func(string) bool {
	return func(s string) bool {
		v, ok := ParseInt(s)
		return ok && v >= lo && v <= hi
	}
}

// cSpace is the set of bytes C's isspace accepts in the "C" locale.
const cSpace = " \t\n\v\f\r"

// ParseInt parses a base-10 integer the way the xferlog writers' strtoll
// readers do: leading whitespace is skipped and one sign is allowed, but the
// rest of the text must be digits and fit in an int64.
func ParseInt(s string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimLeft(s, cSpace), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
