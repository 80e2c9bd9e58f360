package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

const readBufferSize = 64 * 1024

// FileSource implements LineSource over a single file or stream.
// Gzip-compressed input (rotated xferlog.N.gz) is decompressed on the fly.
type FileSource struct {
	source string
	reader *bufio.Reader
	closer []io.Closer

	lineNum int
	done    bool
}

// OpenFile opens a log file for reading.
// The path must exist and be a regular file; anything else is rejected
// before any line is read.
func OpenFile(path string) (*FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}

	s, err := newSource(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.closer = append(s.closer, f)
	return s, nil
}

// NewReaderSource creates a LineSource over an already open stream.
// Closing the source does not close r.
func NewReaderSource(source string, r io.Reader) (*FileSource, error) {
	return newSource(source, r)
}

func newSource(source string, r io.Reader) (*FileSource, error) {
	br := bufio.NewReaderSize(r, readBufferSize)
	s := &FileSource{source: source, reader: br}

	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", source, err)
		}
		s.reader = bufio.NewReaderSize(zr, readBufferSize)
		s.closer = append(s.closer, zr)
	}

	return s, nil
}

// Source returns the name lines are attributed to.
func (s *FileSource) Source() string {
	return s.source
}

// Next returns the next line, terminator included.
// A final line without a terminator is still returned.
// Returns io.EOF when the input is exhausted.
func (s *FileSource) Next(ctx context.Context) (*LogLine, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if s.done {
		return nil, io.EOF
	}

	raw, err := s.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading %s: %w", s.source, err)
		}
		s.done = true
		if raw == "" {
			return nil, io.EOF
		}
	}

	s.lineNum++
	return &LogLine{
		Raw:     raw,
		Source:  s.source,
		LineNum: s.lineNum,
	}, nil
}

// Close releases resources. The first close error is returned.
func (s *FileSource) Close() error {
	var firstErr error
	for _, c := range s.closer {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closer = nil
	return firstErr
}
