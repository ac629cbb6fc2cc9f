// Package allele extracts fixed-width windows of aligned reads around a
// cut point and aggregates identical windowed alleles into a deduplicated
// table.
package allele

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrCutPointNotFound is the cause of the error returned when a read
// record's coordinate mapping does not contain the requested cut point.
// This indicates an upstream alignment/record mismatch and is never
// recovered from.
var ErrCutPointNotFound = errors.New("cut point not found in read coordinate mapping")

// Status classifies a read's alignment outcome over the quantification
// window.
type Status uint8

const (
	Unmodified Status = iota
	Modified
)

func (s Status) String() string {
	if s == Unmodified {
		return "UNMODIFIED"
	}
	return "MODIFIED"
}

// InsertedBase is the RefPositions sentinel for read bases with no
// reference coordinate (bases inserted relative to the reference).
const InsertedBase = -1

// Record is one read's alignment outcome, produced by an upstream
// alignment stage and consumed read-only here.
type Record struct {
	AlignedSeq string
	RefSeq     string
	// RefPositions maps each index of AlignedSeq to a reference
	// coordinate, or InsertedBase. len(RefPositions) == len(AlignedSeq).
	RefPositions []int
	Status       Status
	NDeleted     int
	NInserted    int
	NMutated     int
	Reads        int
	PctReads     float64
}

// Row is one aggregated windowed allele. Reads and PctReads are summed
// over all records that collapsed into the row.
type Row struct {
	AlignedSeq string
	RefSeq     string
	Unedited   bool
	NDeleted   int
	NInserted  int
	NMutated   int
	Reads      int
	PctReads   float64
}

// rowKey is the aggregation key: everything but the summed counts.
type rowKey struct {
	alignedSeq string
	refSeq     string
	unedited   bool
	nDeleted   int
	nInserted  int
	nMutated   int
}

// AroundCut slices the window of half width offset around cutPoint out of
// every record and aggregates identical windowed alleles, summing read
// counts and percentages. A row is reported unedited when any contributing
// record was unmodified (the unedited flag is part of the grouping key, so
// in practice this is the shared flag of the group). Rows are sorted by
// descending aggregated PctReads, with ties broken by the grouping key so
// repeated runs produce identical output.
//
// Window bounds are validated against the amplicon when windows are
// configured; the slice is clamped to the record like the original
// dataframe slicing.
func AroundCut(records []Record, cutPoint, offset int) ([]Row, error) {
	sums := map[rowKey]*Row{}
	var order []rowKey // insertion order, for pre-sort determinism

	for i := range records {
		rec := &records[i]
		cutIdx := -1
		for idx, pos := range rec.RefPositions {
			if pos == cutPoint {
				cutIdx = idx
				break
			}
		}
		if cutIdx < 0 {
			return nil, errors.Wrapf(ErrCutPointNotFound,
				"cut point %d not spanned by read %q", cutPoint, rec.AlignedSeq)
		}
		lo := clamp(cutIdx-offset+1, 0, len(rec.AlignedSeq))
		hi := clamp(cutIdx+offset+1, 0, len(rec.AlignedSeq))
		key := rowKey{
			alignedSeq: rec.AlignedSeq[lo:hi],
			refSeq:     rec.RefSeq[lo:hi],
			unedited:   rec.Status == Unmodified,
			nDeleted:   rec.NDeleted,
			nInserted:  rec.NInserted,
			nMutated:   rec.NMutated,
		}
		row, ok := sums[key]
		if !ok {
			row = &Row{
				AlignedSeq: key.alignedSeq,
				RefSeq:     key.refSeq,
				Unedited:   key.unedited,
				NDeleted:   key.nDeleted,
				NInserted:  key.nInserted,
				NMutated:   key.nMutated,
			}
			sums[key] = row
			order = append(order, key)
		}
		row.Reads += rec.Reads
		row.PctReads += rec.PctReads
	}

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		rows = append(rows, *sums[key])
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PctReads != rows[j].PctReads {
			return rows[i].PctReads > rows[j].PctReads
		}
		if rows[i].AlignedSeq != rows[j].AlignedSeq {
			return rows[i].AlignedSeq < rows[j].AlignedSeq
		}
		if rows[i].RefSeq != rows[j].RefSeq {
			return rows[i].RefSeq < rows[j].RefSeq
		}
		if rows[i].Unedited != rows[j].Unedited {
			return rows[j].Unedited
		}
		if rows[i].NDeleted != rows[j].NDeleted {
			return rows[i].NDeleted < rows[j].NDeleted
		}
		if rows[i].NInserted != rows[j].NInserted {
			return rows[i].NInserted < rows[j].NInserted
		}
		return rows[i].NMutated < rows[j].NMutated
	})
	return rows, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
