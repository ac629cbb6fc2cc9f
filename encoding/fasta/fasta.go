// Package fasta parses FASTA-formatted sequence data: named sequences,
// possibly wrapped over multiple lines. Sequence names are the characters
// after '>' up to the first space; trailing description text is ignored.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Fasta holds a set of named sequences, in file order.
type Fasta struct {
	seqs  map[string]string
	names []string
}

// New reads all FASTA data from r into memory.
func New(r io.Reader) (*Fasta, error) {
	f := &Fasta{seqs: map[string]string{}}
	scanner := bufio.NewScanner(r)
	name := ""
	var seq strings.Builder
	flush := func() error {
		if seq.Len() == 0 {
			return nil
		}
		if name == "" {
			return errors.New("malformed FASTA input: sequence data before any '>' header")
		}
		f.seqs[name] = seq.String()
		f.names = append(f.names, name)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.Split(line[1:], " ")[0]
			continue
		}
		seq.WriteString(line)
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(f.names) == 0 {
		return nil, errors.New("empty FASTA input")
	}
	return f, nil
}

// Get returns the sequence with the given name.
func (f *Fasta) Get(name string) (string, error) {
	seq, ok := f.seqs[name]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", name)
	}
	return seq, nil
}

// SeqNames returns all sequence names in order of appearance.
func (f *Fasta) SeqNames() []string {
	return f.names
}
