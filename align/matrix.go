package align

// Matrix holds substitution scores over the alphabet {A,C,G,T,N}. Any
// other character scores as N.
type Matrix struct {
	scores [5][5]int
}

func baseIndex(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return 4 // N
}

// Score returns the substitution score for aligning base a against base b.
func (m *Matrix) Score(a, b byte) int {
	return m.scores[baseIndex(a)][baseIndex(b)]
}

// NewMatrix returns a matrix scoring match for identical bases and
// mismatch otherwise, with N scoring nVsBase against A/C/G/T and nVsN
// against itself.
func NewMatrix(match, mismatch, nVsBase, nVsN int) Matrix {
	var m Matrix
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			switch {
			case i == 4 && j == 4:
				m.scores[i][j] = nVsN
			case i == 4 || j == 4:
				m.scores[i][j] = nVsBase
			case i == j:
				m.scores[i][j] = match
			default:
				m.scores[i][j] = mismatch
			}
		}
	}
	return m
}

// EDNAFull returns the standard EDNAFULL (NUC.4.4) scores restricted to
// {A,C,G,T,N}: match 5, mismatch -4, N against a base -2, N against N -1.
func EDNAFull() Matrix {
	return NewMatrix(5, -4, -2, -1)
}
