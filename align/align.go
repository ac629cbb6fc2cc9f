// Package align implements global (Needleman-Wunsch) pairwise alignment of
// nucleotide sequences with affine gap penalties and an optional positional
// gap incentive, the alignment capability consumed by amplicon inference
// and read quantification.
package align

// Alignment is the outcome of a global pairwise alignment. Query and Ref
// have equal length, with '-' marking gaps. Score is the fraction of
// alignment columns whose bases match, in [0,1].
type Alignment struct {
	Query string
	Ref   string
	Score float64
}

// Aligner aligns a query against a reference. gapIncentive, when non-nil,
// must have length len(ref)+1; entry j is added to the score of opening a
// gap at reference boundary j, for both insertions and deletions (used to
// pull indels toward expected cut sites). nil means no incentive anywhere.
type Aligner interface {
	Align(query, ref string, gapIncentive []int) (Alignment, error)
}
