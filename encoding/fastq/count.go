package fastq

import (
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// SeqCount is one unique read sequence and its occurrence count.
type SeqCount struct {
	Count int
	Seq   string
}

// CountSequences scans at most maxReads reads from r (all reads when
// maxReads <= 0) and returns the unique uppercased sequences ranked by
// descending count, ties broken by ascending sequence.
func CountSequences(r io.Reader, maxReads int) ([]SeqCount, error) {
	scanner := NewScanner(r)
	counts := map[string]int{}
	nRead := 0
	var read Read
	for (maxReads <= 0 || nRead < maxReads) && scanner.Scan(&read) {
		counts[strings.ToUpper(read.Seq)]++
		nRead++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error counting FASTQ sequences")
	}
	ranked := make([]SeqCount, 0, len(counts))
	for seq, count := range counts {
		ranked = append(ranked, SeqCount{Count: count, Seq: seq})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Seq < ranked[j].Seq
	})
	return ranked, nil
}
