// Package window resolves guide sequences to reference coordinates and
// builds the coordinate sets that drive editing quantification: cut points,
// included/excluded quantification indices, and plotting indices.
package window

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/grailbio/editquant/sequtil"
)

// ErrBadParameter is the cause of all configuration errors reported by
// this package: out-of-range or malformed coordinate overrides, an
// inclusion set that is empty after exclusion, and plot windows extending
// outside the reference.
var ErrBadParameter = errors.New("bad parameter")

// Config controls window construction for one amplicon.
type Config struct {
	// WindowCenter is the cut position relative to the 3' end of the
	// guide. -3 is the Cas9 convention; Cpf1-class nucleases use 1.
	WindowCenter int
	// WindowSize is the width of the quantification window centered at
	// the cut point. 0 disables cut-point windowing and quantifies over
	// the whole amplicon.
	WindowSize int
	// Coordinates, when non-empty, overrides cut-point windowing with
	// explicit inclusive ranges "start-end" joined by '_'. Overrides for
	// multiple amplicons are joined by ',' and selected by AmpliconIndex.
	Coordinates   string
	AmpliconIndex int
	// ExcludeLeft and ExcludeRight trim the amplicon edges from
	// quantification (sequencing quality degrades at read ends).
	ExcludeLeft  int
	ExcludeRight int
	// PlotWindowSize is the width of the window around each cut point
	// reported for plotting.
	PlotWindowSize int
}

// DefaultConfig holds the stock parameter values.
var DefaultConfig = Config{
	WindowCenter:   -3,
	WindowSize:     1,
	ExcludeLeft:    15,
	ExcludeRight:   15,
	PlotWindowSize: 40,
}

// Interval is an inclusive [Start, End] range of reference coordinates.
type Interval struct {
	Start, End int
}

// Windows is the per-amplicon outcome of guide resolution.
type Windows struct {
	// Guides are the input guides with at least one occurrence, in input
	// order. GuideIntervals spans all occurrences in all orientations.
	Guides         []string
	GuideIntervals []Interval
	// CutPoints holds one predicted cleavage coordinate per occurrence.
	CutPoints []int
	// PlotOffsets is 1 for guides that occur on the forward strand, else
	// 0; reverse-strand guides are shifted by one position when plotted.
	PlotOffsets []int
	// IncludeIdxs, ExcludeIdxs and PlotIdxs are sorted, deduplicated
	// reference coordinates. IncludeIdxs excludes ExcludeIdxs.
	IncludeIdxs []int
	ExcludeIdxs []int
	PlotIdxs    []int
}

// forwardCutPoint returns the cut coordinate for a forward-strand guide
// occurrence. center is measured from the guide's 3' end, so the cut sits
// at the end of the match shifted by center.
func forwardCutPoint(matchStart, guideLen, center int) int {
	return matchStart + center + guideLen - 1
}

// reverseCutPoint returns the cut coordinate for a reverse-complement or
// reverse-only occurrence; the guide's 3' end maps to the start of the
// match, so the geometry mirrors forwardCutPoint.
func reverseCutPoint(matchStart, center int) int {
	return matchStart - center - 1
}

var coordRE = regexp.MustCompile(`^(\d+)-(\d+)$`)

// Compute locates every occurrence of every guide in refSeq and derives
// the quantification and plotting coordinate sets. Guides absent from the
// amplicon are skipped. An amplicon with no guide occurrences at all is
// quantified and plotted over its full length.
func Compute(refSeq string, guides []string, cfg Config) (*Windows, error) {
	refLen := len(refSeq)
	w := &Windows{}

	for _, guide := range guides {
		fw := sequtil.FindAll(refSeq, guide)
		rc := sequtil.FindAll(refSeq, sequtil.ReverseComplement(guide))
		rev := sequtil.FindAll(refSeq, sequtil.Reverse(guide))
		if len(fw)+len(rc)+len(rev) == 0 {
			continue
		}
		for _, start := range fw {
			w.CutPoints = append(w.CutPoints, forwardCutPoint(start, len(guide), cfg.WindowCenter))
		}
		for _, start := range rc {
			w.CutPoints = append(w.CutPoints, reverseCutPoint(start, cfg.WindowCenter))
		}
		for _, start := range rev {
			w.CutPoints = append(w.CutPoints, reverseCutPoint(start, cfg.WindowCenter))
		}
		for _, starts := range [][]int{fw, rc, rev} {
			for _, start := range starts {
				w.GuideIntervals = append(w.GuideIntervals, Interval{start, start + len(guide) - 1})
			}
		}
		w.Guides = append(w.Guides, guide)
		if len(fw) > 0 {
			w.PlotOffsets = append(w.PlotOffsets, 1)
		} else {
			w.PlotOffsets = append(w.PlotOffsets, 0)
		}
	}

	include := map[int]bool{}
	override, ok := overrideFor(cfg)
	switch {
	case ok:
		if err := addOverrideRanges(include, override, refLen); err != nil {
			return nil, err
		}
	case len(w.CutPoints) > 0 && cfg.WindowSize > 0:
		half := halfWindow(cfg.WindowSize)
		for _, cut := range w.CutPoints {
			addRange(include, max(0, cut-half+1), min(refLen-1, cut+half+1))
		}
	default:
		addRange(include, 0, refLen)
	}

	exclude := map[int]bool{}
	addRange(exclude, 0, cfg.ExcludeLeft)
	addRange(exclude, max(0, refLen-cfg.ExcludeRight), refLen)

	for idx := range exclude {
		delete(include, idx)
	}
	if len(include) == 0 {
		return nil, errors.Wrap(ErrBadParameter,
			"the entire amplicon has been excluded; use a longer amplicon or decrease the exclude-bp-from-left and exclude-bp-from-right parameters")
	}

	plot := map[int]bool{}
	if len(w.CutPoints) > 0 && cfg.PlotWindowSize > 0 {
		half := halfWindow(cfg.PlotWindowSize)
		for _, cut := range w.CutPoints {
			if cut-half+1 < 0 {
				return nil, errors.Wrapf(ErrBadParameter,
					"plot window extends past the left end of the amplicon; decrease the plot-window-size parameter (cut point %d, half window %d)", cut, half)
			}
			if cut-half > refLen-1 {
				return nil, errors.Wrapf(ErrBadParameter,
					"plot window extends past the right end of the amplicon; decrease the plot-window-size parameter (cut point %d, half window %d)", cut, half)
			}
			addRange(plot, max(0, cut-half+1), min(refLen-1, cut+half+1))
		}
	} else {
		addRange(plot, 0, refLen)
	}

	w.IncludeIdxs = sortedKeys(include)
	w.ExcludeIdxs = sortedKeys(exclude)
	w.PlotIdxs = sortedKeys(plot)
	return w, nil
}

// overrideFor selects this amplicon's segment of the coordinate override
// string. An override listing fewer amplicons than AmpliconIndex does not
// apply to this amplicon.
func overrideFor(cfg Config) (string, bool) {
	if cfg.Coordinates == "" {
		return "", false
	}
	segments := strings.Split(cfg.Coordinates, ",")
	if cfg.AmpliconIndex >= len(segments) {
		return "", false
	}
	return segments[cfg.AmpliconIndex], true
}

func addOverrideRanges(include map[int]bool, override string, refLen int) error {
	for _, coord := range strings.Split(override, "_") {
		m := coordRE.FindStringSubmatch(coord)
		if m == nil {
			return errors.Wrapf(ErrBadParameter,
				"cannot parse quantification window coordinate %q in %q; coordinates must be given in the form start-end, e.g. 5-10", coord, override)
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		if end+1 > refLen {
			return errors.Wrapf(ErrBadParameter,
				"end coordinate %d for %q in %q is longer than the amplicon length (%d)", end+1, coord, override, refLen)
		}
		addRange(include, start, end+1)
	}
	return nil
}

// halfWindow returns the half width used on each side of a cut point.
func halfWindow(size int) int {
	if size/2 < 1 {
		return 1
	}
	return size / 2
}

// addRange adds the half-open range [start, end) to set.
func addRange(set map[int]bool, start, end int) {
	for i := start; i < end; i++ {
		set[i] = true
	}
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
