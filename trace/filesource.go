// Package trace reads memory traces in the plain-text "Op Addr,Size"
// format: a one-letter operation, a hexadecimal address without a 0x prefix,
// and a positive decimal byte count.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/sim"
)

// ErrUnavailable reports that a trace source could not be opened.
var ErrUnavailable = errors.New("trace source unavailable")

// A ParseError reports a trace line that does not follow the record format.
// Malformed records are reported, never handed to the simulator.
type ParseError struct {
	File string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: bad trace record %q: %v",
		e.File, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A FileSource reads trace records from a file, one record per line, lazily
// and in file order.
type FileSource struct {
	name    string
	file    *os.File
	scanner *bufio.Scanner
	lineNum int
}

// NewFileSource opens a trace file for reading.
func NewFileSource(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := &FileSource{
		name:    path,
		file:    file,
		scanner: bufio.NewScanner(file),
	}

	return s, nil
}

// Next returns the next record in the file. It returns io.EOF once the trace
// is exhausted and a *ParseError for a malformed line. Blank lines are
// skipped.
func (s *FileSource) Next() (sim.Record, error) {
	for s.scanner.Scan() {
		s.lineNum++

		line := s.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return sim.Record{}, &ParseError{
				File: s.name,
				Line: s.lineNum,
				Text: line,
				Err:  err,
			}
		}

		return rec, nil
	}

	if err := s.scanner.Err(); err != nil {
		return sim.Record{}, err
	}

	return sim.Record{}, io.EOF
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.file.Close()
}

func parseRecord(line string) (sim.Record, error) {
	// Instruction lines in valgrind traces carry a leading space; Fields
	// absorbs it.
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return sim.Record{}, errors.New("want an op and an addr,size pair")
	}

	if len(fields[0]) != 1 {
		return sim.Record{}, fmt.Errorf("op %q is not a single letter",
			fields[0])
	}
	op := sim.Op(fields[0][0])

	addrStr, sizeStr, found := strings.Cut(fields[1], ",")
	if !found {
		return sim.Record{}, errors.New("missing comma between addr and size")
	}

	addr, err := strconv.ParseUint(addrStr, 16, 64)
	if err != nil {
		return sim.Record{}, fmt.Errorf("bad address %q", addrStr)
	}

	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return sim.Record{}, fmt.Errorf("bad size %q", sizeStr)
	}

	return sim.Record{Op: op, Addr: addr, Size: size}, nil
}
