// Package fastq reads FASTQ sequencing data and counts unique read
// sequences. Paired-end inputs are expected to be merged upstream (e.g.
// with FLASH), so only single-ended streams are handled here.
package fastq

import (
	"bufio"
	"errors"
	"io"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
)

// A Read is one FASTQ read: an ID line (including the leading '@'), the
// base sequence, and the quality string.
type Read struct {
	ID, Seq, Qual string
}

var errEOF = errors.New("eof")

// Scanner provides a convenient interface for reading FASTQ read data.
// The Scan method fills the next read, returning a boolean indicating
// whether the read succeeded. Scanners are not threadsafe.
//
// Scanner requires ID lines to begin with "@" and separator lines to
// begin with "+", but performs no further validation.
type Scanner struct {
	b   *bufio.Scanner
	err error
}

// NewScanner constructs a Scanner reading raw FASTQ data from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{b: bufio.NewScanner(r)}
}

// Scan the next read into the provided read. Once Scan returns false, it
// never returns true again; the caller should then check Err to
// distinguish end of stream from failure.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	id := s.b.Text()
	if len(id) == 0 || id[0] != '@' {
		s.err = ErrInvalid
		return false
	}
	read.ID = id
	if !s.scanLine() {
		return false
	}
	read.Seq = s.b.Text()
	if !s.scanLine() {
		return false
	}
	if sep := s.b.Bytes(); len(sep) == 0 || sep[0] != '+' {
		s.err = ErrInvalid
		return false
	}
	if !s.scanLine() {
		return false
	}
	read.Qual = s.b.Text()
	return true
}

func (s *Scanner) scanLine() bool {
	ok := s.b.Scan()
	if !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}
