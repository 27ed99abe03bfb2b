package ktlx

// Matrix is a channel-major block of decoded samples in physical units
// (volts): row r is channel r, column c is sample c. Matrices handed out by
// the reader are shared with its cache and must be treated as read-only.
type Matrix struct {
	rows [][]float64
}

func newMatrix(rows, cols int) *Matrix {
	backing := make([]float64, rows*cols)
	m := &Matrix{rows: make([][]float64, rows)}
	for r := range m.rows {
		m.rows[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return m
}

// Rows returns the channel count.
func (m *Matrix) Rows() int { return len(m.rows) }

// Cols returns the sample count.
func (m *Matrix) Cols() int {
	if len(m.rows) == 0 {
		return 0
	}
	return len(m.rows[0])
}

// At returns the value of channel r at sample c.
func (m *Matrix) At(r, c int) float64 { return m.rows[r][c] }

// Row returns one channel's samples without copying.
func (m *Matrix) Row(r int) []float64 { return m.rows[r] }

// truncate drops columns past n, for streams that end before the expected
// sample count.
func (m *Matrix) truncate(n int) {
	for r := range m.rows {
		m.rows[r] = m.rows[r][:n]
	}
}
