package solver

// Solve3x3 solves A·x = b with Cramer's rule. A singular matrix is not
// detected: the division by a zero determinant yields Inf or NaN components,
// which the feasibility check rejects.
func Solve3x3(a [3][3]float64, b [3]float64) [3]float64 {
	det := det3(a)

	var x [3]float64
	for col := 0; col < 3; col++ {
		m := a
		for row := 0; row < 3; row++ {
			m[row][col] = b[row]
		}
		x[col] = det3(m) / det
	}

	return x
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
