// Package parser reads transfer log files line by line.
package parser

// LogLine is one raw line of a log file.
type LogLine struct {
	// Raw is the line exactly as read, including its terminator when present.
	Raw string

	// Source is the file path this line came from.
	Source string

	// LineNum is the 1-based line number in the source file. Blank lines count.
	LineNum int
}
