package fastq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastqOf(seqs ...string) string {
	var b strings.Builder
	for i, seq := range seqs {
		b.WriteString("@read")
		b.WriteByte(byte('0' + i))
		b.WriteString("\n")
		b.WriteString(seq)
		b.WriteString("\n+\n")
		b.WriteString(strings.Repeat("E", len(seq)))
		b.WriteString("\n")
	}
	return b.String()
}

func TestCountSequences(t *testing.T) {
	in := fastqOf("ACGT", "TTTT", "ACGT", "acgt", "GGGG", "TTTT", "ACGT")
	ranked, err := CountSequences(strings.NewReader(in), 0)
	require.NoError(t, err)
	assert.Equal(t, []SeqCount{
		{Count: 4, Seq: "ACGT"}, // case-folded
		{Count: 2, Seq: "TTTT"},
		{Count: 1, Seq: "GGGG"},
	}, ranked)
}

func TestCountSequencesTieBreak(t *testing.T) {
	in := fastqOf("TTTT", "AAAA")
	ranked, err := CountSequences(strings.NewReader(in), 0)
	require.NoError(t, err)
	// Equal counts rank by ascending sequence.
	assert.Equal(t, []SeqCount{{Count: 1, Seq: "AAAA"}, {Count: 1, Seq: "TTTT"}}, ranked)
}

func TestCountSequencesMaxReads(t *testing.T) {
	in := fastqOf("AAAA", "AAAA", "CCCC", "CCCC")
	ranked, err := CountSequences(strings.NewReader(in), 2)
	require.NoError(t, err)
	assert.Equal(t, []SeqCount{{Count: 2, Seq: "AAAA"}}, ranked)
}

func TestCountSequencesInvalidInput(t *testing.T) {
	_, err := CountSequences(strings.NewReader("not fastq\n"), 0)
	require.Error(t, err)
}
