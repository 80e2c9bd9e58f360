// Package xferlog checks lines of an FTP transfer log (xferlog) against the
// fixed 20-field layout written by glftpd and wu-ftpd:
//
//	Mon Jan 01 00:05:30 2016 0 example.com 1024 /path/file.txt b _ i r user group 0 ident
//
// Validation is a pure left-to-right pass that stops at the first field
// that does not conform.
package xferlog

import "strconv"

// Field is the 1-based position of a value within a transfer log line.
type Field int

// Field positions in line order.
const (
	FieldNone Field = iota
	FieldWeekday
	FieldMonth
	FieldDay
	FieldHour
	FieldMinute
	FieldSecond
	FieldYear
	FieldTransferTime
	FieldRemoteHost
	FieldFileSize
	FieldFilename
	FieldTransferType
	FieldActionFlag
	FieldDirection
	FieldAccessMode
	FieldUsername
	FieldGroup
	FieldAuthMethod
	FieldIdent
	FieldTerminator
)

// NumFields is the number of field positions checked per line.
const NumFields = int(FieldTerminator)

// Name returns the short name of the field, or "none" for FieldNone.
func (f Field) Name() string {
	if f < FieldWeekday || f > FieldTerminator {
		return "none"
	}
	return grammar[f-1].Name
}

func (f Field) String() string {
	return strconv.Itoa(int(f))
}

// Delim identifies the delimiter set that ends a token.
type Delim int

const (
	// DelimSpace splits on ' '.
	DelimSpace Delim = iota
	// DelimColon splits on ':' (hour and minute of HH:MM:SS).
	DelimColon
)

func (d Delim) chars() string {
	if d == DelimColon {
		return ":"
	}
	return " "
}

func (d Delim) String() string {
	if d == DelimColon {
		return "colon"
	}
	return "space"
}

// Token is the raw text extracted for one field position.
type Token struct {
	// Text is the maximal run of non-delimiter bytes.
	Text string

	// Field is the position this token was extracted for.
	Field Field

	// Delim is the delimiter set used to find the end of the token.
	Delim Delim
}

// Result is the outcome of validating one line.
// The zero value is a valid result.
type Result struct {
	field Field
}

// Valid is the result of a line where every field conforms.
var Valid = Result{}

// Invalid returns a result that fails at the given field.
func Invalid(f Field) Result {
	return Result{field: f}
}

// OK reports whether the line passed every check.
func (r Result) OK() bool {
	return r.field == FieldNone
}

// Field returns the first failing field, or FieldNone when the line is valid.
func (r Result) Field() Field {
	return r.field
}

func (r Result) String() string {
	if r.OK() {
		return "valid"
	}
	return "invalid field " + r.field.String() + " (" + r.field.Name() + ")"
}
