// Package sequtil contains small pure functions over nucleotide strings:
// reversal, reverse complementation, and occurrence search. Sequences use
// the alphabet {A,C,G,T,N}; the gap characters '-' and '_' are passed
// through unchanged so aligned sequences can be complemented as-is.
package sequtil

import "strings"

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	for from, to := range map[byte]byte{
		'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N', '-': '-', '_': '_',
	} {
		complement[from] = to
	}
}

// Reverse returns seq reversed, uppercased.
func Reverse(seq string) string {
	seq = strings.ToUpper(seq)
	buf := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		buf[i] = seq[len(seq)-1-i]
	}
	return string(buf)
}

// ReverseComplement returns the reverse complement of seq, uppercased.
func ReverseComplement(seq string) string {
	seq = strings.ToUpper(seq)
	buf := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		buf[i] = complement[seq[len(seq)-1-i]]
	}
	return string(buf)
}

// FindAll returns the start positions of all non-overlapping occurrences
// of sub in seq, scanning left to right. After a match the scan resumes
// at the end of the match. An empty sub matches nothing.
func FindAll(seq, sub string) []int {
	if len(sub) == 0 {
		return nil
	}
	var starts []int
	for from := 0; ; {
		i := strings.Index(seq[from:], sub)
		if i < 0 {
			return starts
		}
		starts = append(starts, from+i)
		from += i + len(sub)
	}
}

// InvalidNucleotides returns the distinct characters of seq (uppercased)
// outside the alphabet {A,C,G,T,N}, in order of first appearance.
func InvalidNucleotides(seq string) []byte {
	seq = strings.ToUpper(seq)
	var bad []byte
	seen := [256]bool{}
	for i := 0; i < len(seq); i++ {
		c := seq[i]
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			if !seen[c] {
				seen[c] = true
				bad = append(bad, c)
			}
		}
	}
	return bad
}
