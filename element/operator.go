package element

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Operators applies the collocation-derivative discretization of the
// horizontal gradient, divergence and vorticity on the mapped sphere.
// Outputs never alias inputs.
type Operators struct {
	Dvv     [NP][NP]float64
	RRearth float64
}

func NewOperators(ref *Reference, rrearth float64) *Operators {
	return &Operators{Dvv: ref.Dvv, RRearth: rrearth}
}

// derivatives of s along ξ (second index) and η (first index) at (i,j)
func (op *Operators) dxi(s *Scalar2D, i, j int) (d float64) {
	for k := 0; k < NP; k++ {
		d += op.Dvv[j][k] * s[i][k]
	}
	return
}

func (op *Operators) deta(s *Scalar2D, i, j int) (d float64) {
	for k := 0; k < NP; k++ {
		d += op.Dvv[i][k] * s[k][j]
	}
	return
}

func (op *Operators) Gradient(s *Scalar2D, dinv *Tensor2D, out *Vector2D) {
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			v1, v2 := op.dxi(s, i, j), op.deta(s, i, j)
			out[0][i][j] = op.RRearth * (dinv[0][0][i][j]*v1 + dinv[1][0][i][j]*v2)
			out[1][i][j] = op.RRearth * (dinv[0][1][i][j]*v1 + dinv[1][1][i][j]*v2)
		}
	}
}

// GradientAdd sums the gradient of s into out.
func (op *Operators) GradientAdd(s *Scalar2D, dinv *Tensor2D, out *Vector2D) {
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			v1, v2 := op.dxi(s, i, j), op.deta(s, i, j)
			out[0][i][j] += op.RRearth * (dinv[0][0][i][j]*v1 + dinv[1][0][i][j]*v2)
			out[1][i][j] += op.RRearth * (dinv[0][1][i][j]*v1 + dinv[1][1][i][j]*v2)
		}
	}
}

func (op *Operators) Divergence(v *Vector2D, dinv *Tensor2D, metDet *Scalar2D, out *Scalar2D) {
	var gv [2]Scalar2D
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			u0, u1 := v[0][i][j], v[1][i][j]
			gv[0][i][j] = metDet[i][j] * (dinv[0][0][i][j]*u0 + dinv[0][1][i][j]*u1)
			gv[1][i][j] = metDet[i][j] * (dinv[1][0][i][j]*u0 + dinv[1][1][i][j]*u1)
		}
	}
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			out[i][j] = (op.dxi(&gv[0], i, j) + op.deta(&gv[1], i, j)) *
				op.RRearth / metDet[i][j]
		}
	}
}

func (op *Operators) Vorticity(u, v *Scalar2D, d *Tensor2D, metDet *Scalar2D, out *Scalar2D) {
	var vco [2]Scalar2D
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			vco[0][i][j] = u[i][j]*d[0][0][i][j] + v[i][j]*d[1][0][i][j]
			vco[1][i][j] = u[i][j]*d[0][1][i][j] + v[i][j]*d[1][1][i][j]
		}
	}
	for i := 0; i < NP; i++ {
		for j := 0; j < NP; j++ {
			out[i][j] = (op.dxi(&vco[1], i, j) - op.deta(&vco[0], i, j)) *
				op.RRearth / metDet[i][j]
		}
	}
}

// FormatStaticMatrix formats a matrix as a static C array for kernel source.
func FormatStaticMatrix(name string, m mat.Matrix) string {
	rows, cols := m.Dims()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("const double %s[%d][%d] = {\n", name, rows, cols))
	for i := 0; i < rows; i++ {
		sb.WriteString("    {")
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%.15e", m.At(i, j)))
		}
		sb.WriteString("}")
		if i < rows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}
