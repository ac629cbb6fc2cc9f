// Package quant turns pairwise alignments into allele records: it maps
// aligned-sequence indices back to reference coordinates, counts edits
// inside the quantification window, and classifies each read as modified
// or unmodified.
package quant

import "github.com/grailbio/editquant/allele"

// RefPositions maps every index of alignedRead to a 0-based reference
// coordinate. Columns where the reference carries a gap (bases inserted
// in the read) map to allele.InsertedBase. alignedRead and alignedRef
// must have equal length.
func RefPositions(alignedRead, alignedRef string) []int {
	positions := make([]int, len(alignedRead))
	refPos := -1
	for i := 0; i < len(alignedRef); i++ {
		if alignedRef[i] == '-' {
			positions[i] = allele.InsertedBase
			continue
		}
		refPos++
		positions[i] = refPos
	}
	return positions
}

// Counts are the per-read edit counts inside the quantification window.
type Counts struct {
	Deleted  int
	Inserted int
	Mutated  int
}

// Modified reports whether any edit was observed in the window.
func (c Counts) Modified() bool {
	return c.Deleted > 0 || c.Inserted > 0 || c.Mutated > 0
}

// Classify counts deleted, inserted and substituted bases whose reference
// coordinates fall in includeIdxs. Inserted bases are attributed to the
// reference position immediately left of the insertion. An N in the read
// is never counted as a substitution.
func Classify(alignedRead, alignedRef string, includeIdxs []int) Counts {
	include := make(map[int]bool, len(includeIdxs))
	for _, idx := range includeIdxs {
		include[idx] = true
	}
	var c Counts
	refPos := -1
	for i := 0; i < len(alignedRead); i++ {
		readBase, refBase := alignedRead[i], alignedRef[i]
		if refBase == '-' {
			if include[refPos] {
				c.Inserted++
			}
			continue
		}
		refPos++
		if !include[refPos] {
			continue
		}
		switch {
		case readBase == '-':
			c.Deleted++
		case readBase != refBase && readBase != 'N':
			c.Mutated++
		}
	}
	return c
}

// BuildRecord assembles the allele record for one aligned unique read.
// reads is the raw occurrence count and pctReads its percentage of all
// reads aligned to this amplicon.
func BuildRecord(alignedRead, alignedRef string, includeIdxs []int, reads int, pctReads float64) allele.Record {
	counts := Classify(alignedRead, alignedRef, includeIdxs)
	status := allele.Unmodified
	if counts.Modified() {
		status = allele.Modified
	}
	return allele.Record{
		AlignedSeq:   alignedRead,
		RefSeq:       alignedRef,
		RefPositions: RefPositions(alignedRead, alignedRef),
		Status:       status,
		NDeleted:     counts.Deleted,
		NInserted:    counts.Inserted,
		NMutated:     counts.Mutated,
		Reads:        reads,
		PctReads:     pctReads,
	}
}
