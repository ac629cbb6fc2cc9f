package allele

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func refPositions(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func unmodifiedRecord(seq string, reads int, pct float64) Record {
	return Record{
		AlignedSeq:   seq,
		RefSeq:       seq,
		RefPositions: refPositions(len(seq)),
		Status:       Unmodified,
		Reads:        reads,
		PctReads:     pct,
	}
}

func TestAroundCutWindowSlice(t *testing.T) {
	rec := unmodifiedRecord("AAAACCCCGGGGTTTT", 1, 100)
	rows, err := AroundCut([]Record{rec}, 8, 3)
	require.NoError(t, err)
	require.Equal(t, 1, len(rows))
	// Window is [cutIdx-offset+1, cutIdx+offset+1) = [6, 12).
	assert.Equal(t, "CCGGGG", rows[0].AlignedSeq)
	assert.Equal(t, "CCGGGG", rows[0].RefSeq)
	assert.True(t, rows[0].Unedited)
}

func TestAroundCutAggregates(t *testing.T) {
	del := Record{
		AlignedSeq:   "AAAACC--GGGGTTTT",
		RefSeq:       "AAAACCCCGGGGTTTT",
		RefPositions: refPositions(16),
		Status:       Modified,
		NDeleted:     2,
		Reads:        5,
		PctReads:     12.5,
	}
	records := []Record{
		unmodifiedRecord("AAAACCCCGGGGTTTT", 10, 25),
		unmodifiedRecord("AAAACCCCGGGGTTTT", 20, 50),
		del,
	}
	rows, err := AroundCut(records, 8, 3)
	require.NoError(t, err)
	require.Equal(t, 2, len(rows))

	// Identical windowed tuples collapse, summing reads and percentages;
	// rows sort by descending aggregated percentage.
	assert.Equal(t, "CCGGGG", rows[0].AlignedSeq)
	assert.Equal(t, 30, rows[0].Reads)
	assert.Equal(t, 75.0, rows[0].PctReads)
	assert.True(t, rows[0].Unedited)

	assert.Equal(t, "--GGGG", rows[1].AlignedSeq)
	assert.Equal(t, "CCGGGG", rows[1].RefSeq)
	assert.Equal(t, 5, rows[1].Reads)
	assert.Equal(t, 2, rows[1].NDeleted)
	assert.False(t, rows[1].Unedited)
}

// The unedited flag is part of the grouping key: records with identical
// windows but different status do not collapse, and each group reports
// the status its members share.
func TestAroundCutStatusSplitsGroups(t *testing.T) {
	a := unmodifiedRecord("AAAACCCCGGGGTTTT", 4, 40)
	b := a
	b.Status = Modified
	b.NMutated = 1 // mutated outside the window
	b.Reads = 6
	b.PctReads = 60
	rows, err := AroundCut([]Record{a, b}, 8, 3)
	require.NoError(t, err)
	require.Equal(t, 2, len(rows))
	assert.False(t, rows[0].Unedited)
	assert.Equal(t, 6, rows[0].Reads)
	assert.True(t, rows[1].Unedited)
	assert.Equal(t, 4, rows[1].Reads)
}

func TestAroundCutIdempotent(t *testing.T) {
	records := []Record{
		unmodifiedRecord("AAAACCCCGGGGTTTT", 10, 25),
		unmodifiedRecord("AAAACCCCGGGGTTTT", 20, 50),
		unmodifiedRecord("AAAAGCCCGGGGTTTT", 3, 7.5),
	}
	first, err := AroundCut(records, 8, 3)
	require.NoError(t, err)
	second, err := AroundCut(records, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAroundCutTieBreakDeterministic(t *testing.T) {
	// Equal aggregated percentages: ties order by the grouping key.
	records := []Record{
		unmodifiedRecord("AAAATTTTGGGGTTTT", 5, 50),
		unmodifiedRecord("AAAACCCCGGGGTTTT", 5, 50),
	}
	rows, err := AroundCut(records, 8, 3)
	require.NoError(t, err)
	require.Equal(t, 2, len(rows))
	assert.Equal(t, "CCGGGG", rows[0].AlignedSeq)
	assert.Equal(t, "TTGGGG", rows[1].AlignedSeq)
}

func TestAroundCutInsertedBases(t *testing.T) {
	// Read with two inserted bases right of reference position 7; the
	// cut-point lookup follows RefPositions, not raw indices.
	rec := Record{
		AlignedSeq:   "AAAACCCCTTGGGGTTTT",
		RefSeq:       "AAAACCCC--GGGGTTTT",
		RefPositions: []int{0, 1, 2, 3, 4, 5, 6, 7, InsertedBase, InsertedBase, 8, 9, 10, 11, 12, 13, 14, 15},
		Status:       Modified,
		NInserted:    2,
		Reads:        1,
		PctReads:     100,
	}
	rows, err := AroundCut([]Record{rec}, 8, 3)
	require.NoError(t, err)
	require.Equal(t, 1, len(rows))
	// cutIdx is 10 (first aligned index mapping to reference 8), so the
	// window [8, 14) starts inside the insertion.
	assert.Equal(t, "TTGGGG", rows[0].AlignedSeq)
	assert.Equal(t, "--GGGG", rows[0].RefSeq)
}

func TestAroundCutMissingCutPoint(t *testing.T) {
	rec := unmodifiedRecord("ACGT", 1, 100)
	_, err := AroundCut([]Record{rec}, 99, 1)
	require.Error(t, err)
	assert.Equal(t, ErrCutPointNotFound, errors.Cause(err))
}

func TestAroundCutClampsToRecord(t *testing.T) {
	rec := unmodifiedRecord("ACGTACGT", 1, 100)
	rows, err := AroundCut([]Record{rec}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, len(rows))
	assert.Equal(t, "ACGTACGT", rows[0].AlignedSeq)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "UNMODIFIED", Unmodified.String())
	assert.Equal(t, "MODIFIED", Modified.String())
}
