package align

import (
	"strings"

	"github.com/pkg/errors"
)

// state identifies which DP layer an alignment prefix ends in.
type state uint8

const (
	matched  state = iota // query base against ref base
	queryGap              // gap in ref, query base consumed
	refGap                // gap in query, ref base consumed
)

const minScore = -1 << 30

// NW is a Needleman-Wunsch global aligner with affine gap penalties.
// gapOpen and gapExtend are penalties and must be negative. Thread safe.
type NW struct {
	matrix    Matrix
	gapOpen   int
	gapExtend int
}

// NewNW returns a global aligner using the given substitution matrix and
// affine gap penalties.
func NewNW(matrix Matrix, gapOpen, gapExtend int) *NW {
	return &NW{matrix: matrix, gapOpen: gapOpen, gapExtend: gapExtend}
}

// Align implements Aligner.
func (a *NW) Align(query, ref string, gapIncentive []int) (Alignment, error) {
	if len(query) == 0 || len(ref) == 0 {
		return Alignment{}, errors.Errorf("cannot align empty sequence (query %d bp, ref %d bp)", len(query), len(ref))
	}
	if gapIncentive != nil && len(gapIncentive) != len(ref)+1 {
		return Alignment{}, errors.Errorf("gap incentive length %d, want %d (ref length + 1)", len(gapIncentive), len(ref)+1)
	}
	query = strings.ToUpper(query)
	ref = strings.ToUpper(ref)
	incentive := func(j int) int {
		if gapIncentive == nil {
			return 0
		}
		return gapIncentive[j]
	}

	n, m := len(query), len(ref)
	cols := m + 1
	// Row-major (n+1) x (m+1) layers: mm ends in a substitution column,
	// qg ends in a gap in the ref, rg ends in a gap in the query.
	mm := make([]int, (n+1)*cols)
	qg := make([]int, (n+1)*cols)
	rg := make([]int, (n+1)*cols)
	for j := 1; j <= m; j++ {
		mm[j] = minScore
		qg[j] = minScore
		rg[j] = a.gapOpen + (j-1)*a.gapExtend + incentive(0)
	}
	for i := 1; i <= n; i++ {
		mm[i*cols] = minScore
		qg[i*cols] = a.gapOpen + (i-1)*a.gapExtend + incentive(0)
		rg[i*cols] = minScore
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			at := i*cols + j
			diag := (i-1)*cols + (j - 1)
			up := (i - 1) * cols // + j below
			left := at - 1

			best := mm[diag]
			if qg[diag] > best {
				best = qg[diag]
			}
			if rg[diag] > best {
				best = rg[diag]
			}
			mm[at] = best + a.matrix.Score(query[i-1], ref[j-1])

			open := mm[up+j] + a.gapOpen + incentive(j)
			extend := qg[up+j] + a.gapExtend
			if open > extend {
				qg[at] = open
			} else {
				qg[at] = extend
			}

			// A deletion whose first skipped reference base is r[j-1]
			// opens at reference boundary j-1.
			open = mm[left] + a.gapOpen + incentive(j-1)
			extend = rg[left] + a.gapExtend
			if open > extend {
				rg[at] = open
			} else {
				rg[at] = extend
			}
		}
	}

	// Traceback from the best-scoring layer at (n, m).
	cur := matched
	end := n*cols + m
	if qg[end] > mm[end] {
		cur = queryGap
	}
	if rg[end] > mm[end] && rg[end] > qg[end] {
		cur = refGap
	}
	var alnQuery, alnRef []byte
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i == 0:
			alnQuery = append(alnQuery, '-')
			alnRef = append(alnRef, ref[j-1])
			j--
			continue
		case j == 0:
			alnQuery = append(alnQuery, query[i-1])
			alnRef = append(alnRef, '-')
			i--
			continue
		}
		at := i*cols + j
		switch cur {
		case matched:
			alnQuery = append(alnQuery, query[i-1])
			alnRef = append(alnRef, ref[j-1])
			diag := (i-1)*cols + (j - 1)
			cur = argmax3(mm[diag], qg[diag], rg[diag])
			i--
			j--
		case queryGap:
			alnQuery = append(alnQuery, query[i-1])
			alnRef = append(alnRef, '-')
			if qg[at] == qg[(i-1)*cols+j]+a.gapExtend {
				cur = queryGap
			} else {
				cur = matched
			}
			i--
		case refGap:
			alnQuery = append(alnQuery, '-')
			alnRef = append(alnRef, ref[j-1])
			if rg[at] == rg[at-1]+a.gapExtend {
				cur = refGap
			} else {
				cur = matched
			}
			j--
		}
	}
	reverseBytes(alnQuery)
	reverseBytes(alnRef)

	matches := 0
	for k := range alnQuery {
		if alnQuery[k] == alnRef[k] && alnQuery[k] != '-' {
			matches++
		}
	}
	return Alignment{
		Query: string(alnQuery),
		Ref:   string(alnRef),
		Score: float64(matches) / float64(len(alnQuery)),
	}, nil
}

func argmax3(m, q, r int) state {
	best := matched
	if q > m {
		best = queryGap
		m = q
	}
	if r > m {
		best = refGap
	}
	return best
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
