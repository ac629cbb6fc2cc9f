// Package infer derives a minimal set of distinct reference amplicons
// from ranked raw read frequencies, for runs where no reference sequence
// was supplied. The most frequent read seeds the candidate set; later
// reads are either merged into an existing candidate (when a global
// alignment of the read or its reverse complement scores above the
// similarity cutoff) or promoted to a new candidate.
package infer

import (
	"github.com/grailbio/base/traverse"
	"github.com/pkg/errors"

	"github.com/grailbio/editquant/align"
	"github.com/grailbio/editquant/sequtil"
)

// ErrNoFrequentReads is the cause of the error returned when inference
// has no usable frequent reads: an empty ranking, or a most frequent read
// whose frequency is already at or below the consideration floor.
// Downstream stages require at least one reference, so this is surfaced
// rather than returning an empty list.
var ErrNoFrequentReads = errors.New("no frequent reads to infer amplicons from")

// RankedRead is one unique read sequence and its occurrence count, as
// produced by the upstream merge/count step. Rankings are ordered most
// frequent first.
type RankedRead struct {
	Count int
	Seq   string
}

// Opts controls amplicon inference.
type Opts struct {
	// MinFreqToConsider is the normalized frequency floor; the scan stops
	// once the previously examined read falls to or below it.
	MinFreqToConsider float64
	// SimilarityCutoff merges a read into an existing candidate when
	// either orientation scores strictly above it.
	SimilarityCutoff float64
}

// DefaultOpts holds the stock inference thresholds.
var DefaultOpts = Opts{
	MinFreqToConsider: 0.01,
	SimilarityCutoff:  0.95,
}

// Amplicons returns the inferred amplicon sequences, most frequent
// first. totalReads is the number of reads the ranking was computed
// over. The scan over ranked reads is strictly sequential; only the
// alignments of one read against the already-final candidate list run in
// parallel, so results depend only on the input ranking.
//
// The stop rule checks the frequency of the read before the current one,
// not the current read's own frequency. This one-read lookback is
// deliberate and pinned by a regression test.
func Amplicons(reads []RankedRead, totalReads int, aligner align.Aligner, opts Opts) ([]string, error) {
	if len(reads) == 0 {
		return nil, errors.Wrap(ErrNoFrequentReads, "empty read ranking")
	}
	if freq(reads[0], totalReads) <= opts.MinFreqToConsider {
		return nil, errors.Wrapf(ErrNoFrequentReads,
			"most frequent read (%d of %d reads) is at or below the frequency floor %g",
			reads[0].Count, totalReads, opts.MinFreqToConsider)
	}

	amplicons := []string{reads[0].Seq}
	for i := 1; i < len(reads); i++ {
		// Reads past the frequency floor are unreliable; note the gate is
		// on the previous read's frequency.
		if freq(reads[i-1], totalReads) <= opts.MinFreqToConsider {
			break
		}
		matched, err := matchesAny(reads[i].Seq, amplicons, aligner, opts.SimilarityCutoff)
		if err != nil {
			return nil, err
		}
		if !matched {
			amplicons = append(amplicons, reads[i].Seq)
		}
	}
	return amplicons, nil
}

// matchesAny reports whether seq or its reverse complement globally
// aligns to any candidate with a score strictly above cutoff.
func matchesAny(seq string, amplicons []string, aligner align.Aligner, cutoff float64) (bool, error) {
	revComp := sequtil.ReverseComplement(seq)
	scores := make([]float64, len(amplicons))
	err := traverse.Each(len(amplicons), func(i int) error {
		fw, err := aligner.Align(seq, amplicons[i], nil)
		if err != nil {
			return err
		}
		rv, err := aligner.Align(revComp, amplicons[i], nil)
		if err != nil {
			return err
		}
		scores[i] = fw.Score
		if rv.Score > fw.Score {
			scores[i] = rv.Score
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	for _, score := range scores {
		if score > cutoff {
			return true, nil
		}
	}
	return false, nil
}

func freq(r RankedRead, totalReads int) float64 {
	return float64(r.Count) / float64(totalReads)
}
