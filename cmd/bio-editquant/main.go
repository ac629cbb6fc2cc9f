// bio-editquant quantifies genome-editing outcomes from amplicon
// sequencing reads.
//
// The tool has two modes selected by whether reference amplicons were
// supplied:
//
//  1. Quantification: for each reference amplicon, resolve the guide cut
//     sites and quantification windows, align the unique reads, and write
//     a table of alleles around every cut point.
//
//  2. Inference (-auto, or no -a): infer the reference amplicons from the
//     most frequent reads, then quantify against them.
//
// Paired-end reads must be merged upstream (e.g. with FLASH) before being
// passed via -r1.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/editquant/align"
	"github.com/grailbio/editquant/allele"
	"github.com/grailbio/editquant/encoding/fasta"
	"github.com/grailbio/editquant/encoding/fastq"
	"github.com/grailbio/editquant/infer"
	"github.com/grailbio/editquant/quant"
	"github.com/grailbio/editquant/sequtil"
	"github.com/grailbio/editquant/window"
)

type editquantFlags struct {
	r1Path        string
	amplicons     string
	ampliconFasta string
	guides        string
	outputDir     string
	auto          bool
	nReads        int
	minAlnScore   float64
	gapOpen       int
	gapExtend     int
	gapIncentive  int
}

func parseFlags() (editquantFlags, window.Config, infer.Opts) {
	var (
		flags     editquantFlags
		windowCfg = window.DefaultConfig
		inferOpts = infer.DefaultOpts
	)
	flag.StringVar(&flags.r1Path, "r1", "", "FASTQ file of (merged) reads. May be gzipped.")
	flag.StringVar(&flags.amplicons, "a", "", "Reference amplicon sequence(s), comma separated. Empty implies -auto.")
	flag.StringVar(&flags.ampliconFasta, "amplicon-fasta", "", "FASTA file of reference amplicons, an alternative to -a. May be gzipped.")
	flag.StringVar(&flags.guides, "g", "", "Guide (sgRNA) sequence(s) without PAM, comma separated.")
	flag.StringVar(&flags.outputDir, "o", ".", "Output directory.")
	flag.BoolVar(&flags.auto, "auto", false, "Infer amplicon sequences from the most frequent reads.")
	flag.IntVar(&flags.nReads, "n-reads-to-consider", 5000, "Number of reads from the top of the file to examine.")
	flag.Float64Var(&flags.minAlnScore, "min-aln-score", 0.6, "Minimum similarity score for a read to count toward an amplicon.")
	flag.IntVar(&flags.gapOpen, "gap-open", -20, "Needleman-Wunsch gap open penalty.")
	flag.IntVar(&flags.gapExtend, "gap-extend", -2, "Needleman-Wunsch gap extend penalty.")
	flag.IntVar(&flags.gapIncentive, "gap-incentive", 1, "Gap incentive for indels at cut sites.")
	flag.IntVar(&windowCfg.WindowCenter, "wc", window.DefaultConfig.WindowCenter,
		"Center of the quantification window relative to the 3' end of the guide.")
	flag.IntVar(&windowCfg.WindowSize, "w", window.DefaultConfig.WindowSize,
		"Size of the quantification window around each cut point. 0 quantifies the whole amplicon.")
	flag.StringVar(&windowCfg.Coordinates, "qwc", "",
		"Explicit quantification window coordinates, overriding -w/-wc. Ranges like 5-10 joined by '_', per-amplicon lists joined by ','.")
	flag.IntVar(&windowCfg.ExcludeLeft, "exclude-bp-from-left", window.DefaultConfig.ExcludeLeft,
		"Exclude bp from the left side of the amplicon from quantification.")
	flag.IntVar(&windowCfg.ExcludeRight, "exclude-bp-from-right", window.DefaultConfig.ExcludeRight,
		"Exclude bp from the right side of the amplicon from quantification.")
	flag.IntVar(&windowCfg.PlotWindowSize, "plot-window-size", window.DefaultConfig.PlotWindowSize,
		"Window around the cut point for the alleles table.")
	flag.Float64Var(&inferOpts.MinFreqToConsider, "min-freq-to-consider", infer.DefaultOpts.MinFreqToConsider,
		"Minimum normalized read frequency for amplicon inference.")
	flag.Float64Var(&inferOpts.SimilarityCutoff, "amplicon-similarity-cutoff", infer.DefaultOpts.SimilarityCutoff,
		"Reads above this similarity to an existing inferred amplicon are not added as new amplicons.")
	flag.Parse()
	return flags, windowCfg, inferOpts
}

func main() {
	flags, windowCfg, inferOpts := parseFlags()
	cleanup := grail.Init()
	defer cleanup()
	ctx := vcontext.Background()

	if flags.r1Path == "" {
		log.Fatal("-r1 is required")
	}
	ranked, err := countReads(ctx, flags.r1Path, flags.nReads)
	if err != nil {
		log.Fatalf("%s: %v", flags.r1Path, err)
	}
	totalReads := 0
	for _, r := range ranked {
		totalReads += r.Count
	}
	log.Printf("Examined %d reads (%d unique sequences)", totalReads, len(ranked))

	aligner := align.NewNW(align.EDNAFull(), flags.gapOpen, flags.gapExtend)

	var amplicons []string
	switch {
	case flags.ampliconFasta != "":
		if amplicons, err = readAmpliconFasta(ctx, flags.ampliconFasta); err != nil {
			log.Fatalf("%s: %v", flags.ampliconFasta, err)
		}
		log.Printf("Read %d amplicon(s) from %s", len(amplicons), flags.ampliconFasta)
	case flags.auto || flags.amplicons == "":
		inferReads := make([]infer.RankedRead, len(ranked))
		for i, r := range ranked {
			inferReads[i] = infer.RankedRead{Count: r.Count, Seq: r.Seq}
		}
		if amplicons, err = infer.Amplicons(inferReads, totalReads, aligner, inferOpts); err != nil {
			log.Fatalf("amplicon inference: %v", err)
		}
		log.Printf("Inferred %d amplicon(s)", len(amplicons))
		if err = writeAmplicons(ctx, filepath.Join(flags.outputDir, "inferred_amplicons.txt"), amplicons); err != nil {
			log.Fatalf("write inferred amplicons: %v", err)
		}
	default:
		amplicons = strings.Split(strings.ToUpper(flags.amplicons), ",")
	}

	var guides []string
	if flags.guides != "" {
		guides = strings.Split(strings.ToUpper(flags.guides), ",")
		for _, g := range guides {
			if bad := sequtil.InvalidNucleotides(g); len(bad) > 0 {
				log.Fatalf("guide %s contains invalid characters: %q", g, bad)
			}
		}
	}

	for ampIdx, ampSeq := range amplicons {
		if bad := sequtil.InvalidNucleotides(ampSeq); len(bad) > 0 {
			log.Fatalf("amplicon %d contains invalid characters: %q", ampIdx+1, bad)
		}
		cfg := windowCfg
		cfg.AmpliconIndex = ampIdx
		if err := quantifyAmplicon(ctx, flags, cfg, aligner, ampIdx, ampSeq, guides, ranked); err != nil {
			log.Fatalf("amplicon %d: %v", ampIdx+1, err)
		}
	}
	log.Printf("All done")
}

func countReads(ctx context.Context, path string, maxReads int) ([]fastq.SeqCount, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	return fastq.CountSequences(r, maxReads)
}

func readAmpliconFasta(ctx context.Context, path string) ([]string, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	fa, err := fasta.New(r)
	if err != nil {
		return nil, err
	}
	amplicons := make([]string, 0, len(fa.SeqNames()))
	for _, name := range fa.SeqNames() {
		seq, err := fa.Get(name)
		if err != nil {
			return nil, err
		}
		amplicons = append(amplicons, strings.ToUpper(seq))
	}
	return amplicons, nil
}

func quantifyAmplicon(ctx context.Context, flags editquantFlags, cfg window.Config, aligner align.Aligner,
	ampIdx int, ampSeq string, guides []string, ranked []fastq.SeqCount) error {
	w, err := window.Compute(ampSeq, guides, cfg)
	if err != nil {
		return err
	}
	log.Printf("Amplicon %d: %d guide(s) found, cut points %v, %d quantified positions",
		ampIdx+1, len(w.Guides), w.CutPoints, len(w.IncludeIdxs))

	// Indels are pulled toward the expected cut sites during alignment.
	incentive := make([]int, len(ampSeq)+1)
	for _, cut := range w.CutPoints {
		if cut+1 >= 0 && cut+1 < len(incentive) {
			incentive[cut+1] += flags.gapIncentive
		}
	}

	type aligned struct {
		aln   align.Alignment
		count int
	}
	var (
		alns         []aligned
		alignedReads int
	)
	for _, r := range ranked {
		fw, err := aligner.Align(r.Seq, ampSeq, incentive)
		if err != nil {
			return err
		}
		rv, err := aligner.Align(sequtil.ReverseComplement(r.Seq), ampSeq, incentive)
		if err != nil {
			return err
		}
		best := fw
		if rv.Score > fw.Score {
			best = rv
		}
		if best.Score < flags.minAlnScore {
			continue
		}
		alns = append(alns, aligned{aln: best, count: r.Count})
		alignedReads += r.Count
	}
	if alignedReads == 0 {
		log.Printf("Amplicon %d: no reads aligned", ampIdx+1)
		return nil
	}

	records := make([]allele.Record, len(alns))
	for i, a := range alns {
		pct := 100 * float64(a.count) / float64(alignedReads)
		records[i] = quant.BuildRecord(a.aln.Query, a.aln.Ref, w.IncludeIdxs, a.count, pct)
	}

	offset := cfg.PlotWindowSize / 2
	if offset < 1 {
		offset = 1
	}
	for _, cut := range w.CutPoints {
		rows, err := allele.AroundCut(records, cut, offset)
		if err != nil {
			return err
		}
		path := filepath.Join(flags.outputDir, fmt.Sprintf("alleles_around_cut_amplicon%d_pos%d.tsv", ampIdx+1, cut))
		if err := writeAlleleTable(ctx, path, rows); err != nil {
			return err
		}
		log.Printf("Amplicon %d: wrote %d allele(s) around cut %d to %s", ampIdx+1, len(rows), cut, path)
	}
	return nil
}

func writeAmplicons(ctx context.Context, path string, amplicons []string) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	for i, seq := range amplicons {
		fmt.Fprintf(out.Writer(ctx), "Amplicon%d\t%s\n", i+1, seq)
	}
	return out.Close(ctx)
}

func writeAlleleTable(ctx context.Context, path string, rows []allele.Row) error {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	wr := out.Writer(ctx)
	fmt.Fprintln(wr, "Aligned_Sequence\tReference_Sequence\tUnedited\tn_deleted\tn_inserted\tn_mutated\t#Reads\t%Reads")
	for _, row := range rows {
		fmt.Fprintf(wr, "%s\t%s\t%t\t%d\t%d\t%d\t%d\t%.4f\n",
			row.AlignedSeq, row.RefSeq, row.Unedited, row.NDeleted, row.NInserted, row.NMutated, row.Reads, row.PctReads)
	}
	return out.Close(ctx)
}
