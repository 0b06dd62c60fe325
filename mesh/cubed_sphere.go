// Package mesh generates spectral-element metrics on an equiangular
// gnomonic cubed sphere.
package mesh

import (
	"fmt"
	"math"
	"strings"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
	"gonum.org/v1/gonum/spatial/r3"
)

// Omega is the Earth's rotation rate (1/s).
const Omega = 7.292e-5

// face is the tangent plane x = n + tan(α) a + tan(β) b of one cube face.
type face struct {
	n, a, b r3.Vec
	name    string
}

var faces = [6]face{
	{r3.Vec{X: 1}, r3.Vec{Y: 1}, r3.Vec{Z: 1}, "+x"},
	{r3.Vec{Y: 1}, r3.Vec{X: -1}, r3.Vec{Z: 1}, "+y"},
	{r3.Vec{X: -1}, r3.Vec{Y: -1}, r3.Vec{Z: 1}, "-x"},
	{r3.Vec{Y: -1}, r3.Vec{X: 1}, r3.Vec{Z: 1}, "-y"},
	{r3.Vec{Z: 1}, r3.Vec{Y: 1}, r3.Vec{X: -1}, "+z"},
	{r3.Vec{Z: -1}, r3.Vec{Y: 1}, r3.Vec{X: 1}, "-z"},
}

// CubedSphere holds Ne x Ne elements per face. Element ie = f*Ne*Ne + ey*Ne + ex
// covers face f, column ex along α and row ey along β.
type CubedSphere struct {
	Ne       int
	Metrics  []element.Metric
	Lat, Lon []element.Scalar2D
}

func NewCubedSphere(ne int) (*CubedSphere, error) {
	if ne < 1 {
		return nil, fmt.Errorf("cubed sphere needs ne >= 1, got %d", ne)
	}
	n := 6 * ne * ne
	cs := &CubedSphere{
		Ne:      ne,
		Metrics: make([]element.Metric, n),
		Lat:     make([]element.Scalar2D, n),
		Lon:     make([]element.Scalar2D, n),
	}
	ref := element.GetReference()
	delta := math.Pi / float64(2*ne)
	for f := range faces {
		for ey := 0; ey < ne; ey++ {
			for ex := 0; ex < ne; ex++ {
				ie := f*ne*ne + ey*ne + ex
				if err := cs.buildElement(ie, &faces[f], ex, ey, delta, ref); err != nil {
					return nil, fmt.Errorf("element %d on face %s: %w", ie, faces[f].name, err)
				}
			}
		}
	}
	return cs, nil
}

func (cs *CubedSphere) NumElems() int { return len(cs.Metrics) }

func (cs *CubedSphere) buildElement(ie int, fc *face, ex, ey int, delta float64, ref *element.Reference) error {
	var d element.Tensor2D
	m := &cs.Metrics[ie]
	for i := 0; i < element.NP; i++ {
		for j := 0; j < element.NP; j++ {
			alpha := -math.Pi/4 + (float64(ex)+0.5*(ref.Points[j]+1))*delta
			beta := -math.Pi/4 + (float64(ey)+0.5*(ref.Points[i]+1))*delta
			ta, tb := math.Tan(alpha), math.Tan(beta)

			c := r3.Add(fc.n, r3.Add(r3.Scale(ta, fc.a), r3.Scale(tb, fc.b)))
			r := r3.Norm(c)
			p := r3.Unit(c)

			// derivatives of the unit sphere point with respect to ξ and η
			var dp [2]r3.Vec
			for k, dc := range [2]r3.Vec{r3.Scale(1+ta*ta, fc.a), r3.Scale(1+tb*tb, fc.b)} {
				tangent := r3.Sub(dc, r3.Scale(r3.Dot(p, dc), p))
				dp[k] = r3.Scale(0.5*delta/r, tangent)
			}

			lat := math.Asin(math.Max(-1, math.Min(1, p.Z)))
			lon := math.Atan2(p.Y, p.X)
			sl, cl := math.Sincos(lon)
			st, ct := math.Sincos(lat)
			east := r3.Vec{X: -sl, Y: cl}
			north := r3.Vec{X: -st * cl, Y: -st * sl, Z: ct}
			for k := 0; k < 2; k++ {
				d[0][k][i][j] = r3.Dot(east, dp[k])
				d[1][k][i][j] = r3.Dot(north, dp[k])
			}

			cs.Lat[ie][i][j], cs.Lon[ie][i][j] = lat, lon
			m.Fcor[i][j] = 2 * Omega * st
		}
	}
	return m.SetD(d, ref)
}

// Apply copies the metrics into a store of matching size.
func (cs *CubedSphere) Apply(s *state.Store) error {
	if s.NumElems() != cs.NumElems() {
		return fmt.Errorf("store holds %d elements, mesh has %d", s.NumElems(), cs.NumElems())
	}
	for ie := range cs.Metrics {
		s.Element(ie).Metric = cs.Metrics[ie]
	}
	return nil
}

// Area sums the mass matrix over the whole sphere; 4π for a unit sphere.
func (cs *CubedSphere) Area() (area float64) {
	for ie := range cs.Metrics {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				area += cs.Metrics[ie].SpheRemp[i][j]
			}
		}
	}
	return
}

func (cs *CubedSphere) String() string {
	var sb strings.Builder
	minDet, maxDet := math.Inf(1), math.Inf(-1)
	for ie := range cs.Metrics {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				minDet = math.Min(minDet, cs.Metrics[ie].MetDet[i][j])
				maxDet = math.Max(maxDet, cs.Metrics[ie].MetDet[i][j])
			}
		}
	}
	sb.WriteString("=== CubedSphere Summary ===\n")
	sb.WriteString(fmt.Sprintf("  ne: %d  elements: %d  NP: %d\n", cs.Ne, cs.NumElems(), element.NP))
	sb.WriteString(fmt.Sprintf("  metDet range: [%.6e, %.6e]\n", minDet, maxDet))
	sb.WriteString(fmt.Sprintf("  area / 4π: %.12f\n", cs.Area()/(4*math.Pi)))
	return sb.String()
}
