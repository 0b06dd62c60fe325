// Package initial fills a state store with reproducible synthetic data.
package initial

import (
	"fmt"
	"math/rand/v2"

	"github.com/notargets/SEKernel/element"
	"github.com/notargets/SEKernel/state"
	"gonum.org/v1/gonum/stat/distuv"
)

// Ranges bounds every generated field.
type Ranges struct {
	Wind, Temperature, DP3D, Pecnd, Tracer, Accumulator [2]float64
	Fcor, Phis, DiagD, OffDiagD                         [2]float64
}

func DefaultRanges() Ranges {
	return Ranges{
		Wind:        [2]float64{-10, 10},
		Temperature: [2]float64{250, 300},
		DP3D:        [2]float64{500, 1500},
		Pecnd:       [2]float64{-1, 1},
		Tracer:      [2]float64{0, 5},
		Accumulator: [2]float64{-1, 1},
		Fcor:        [2]float64{-1.e-4, 1.e-4},
		Phis:        [2]float64{0, 1000},
		DiagD:       [2]float64{0.5, 1.5},
		OffDiagD:    [2]float64{-0.2, 0.2},
	}
}

type Generator struct {
	Ranges Ranges
	src    *rand.PCG
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{Ranges: DefaultRanges(), src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

func (g *Generator) uniform(r [2]float64) distuv.Uniform {
	return distuv.Uniform{Min: r[0], Max: r[1], Src: g.src}
}

func fill3D(f *element.Scalar3D, d distuv.Uniform) {
	for l := range f {
		fill2D(&f[l], d)
	}
}

func fill2D(f *element.Scalar2D, d distuv.Uniform) {
	for i := range f {
		for j := range f[i] {
			f[i][j] = d.Rand()
		}
	}
}

// Fill populates every field of every element, including a random but
// well-conditioned metric. Elements are visited in index order so the result
// depends only on the seed.
func (g *Generator) Fill(s *state.Store) error {
	ref := element.GetReference()
	for ie := range s.Elements {
		el := s.Element(ie)
		if err := g.FillMetric(&el.Metric, ref); err != nil {
			return fmt.Errorf("element %d: %w", ie, err)
		}
		g.FillFields(el)
	}
	return nil
}

func (g *Generator) FillMetric(m *element.Metric, ref *element.Reference) error {
	var d element.Tensor2D
	diag, off := g.uniform(g.Ranges.DiagD), g.uniform(g.Ranges.OffDiagD)
	fill2D(&d[0][0], diag)
	fill2D(&d[0][1], off)
	fill2D(&d[1][0], off)
	fill2D(&d[1][1], diag)
	if err := m.SetD(d, ref); err != nil {
		return err
	}
	fill2D(&m.Fcor, g.uniform(g.Ranges.Fcor))
	fill2D(&m.Phis, g.uniform(g.Ranges.Phis))
	return nil
}

// FillFields populates the prognostic, diagnostic, accumulator and tracer
// fields but leaves the metric alone.
func (g *Generator) FillFields(el *state.Element) {
	wind := g.uniform(g.Ranges.Wind)
	for tl := 0; tl < element.NumTimeLevels; tl++ {
		fill3D(&el.U[tl], wind)
		fill3D(&el.V[tl], wind)
		fill3D(&el.T[tl], g.uniform(g.Ranges.Temperature))
		fill3D(&el.DP3D[tl], g.uniform(g.Ranges.DP3D))
	}
	fill3D(&el.Pecnd, g.uniform(g.Ranges.Pecnd))
	fill3D(&el.Phi, g.uniform(g.Ranges.Phis))

	acc := g.uniform(g.Ranges.Accumulator)
	fill3D(&el.DerivedUn0, acc)
	fill3D(&el.DerivedVn0, acc)
	fill3D(&el.OmegaPAccum, acc)
	for l := range el.EtaDotDpdn {
		fill2D(&el.EtaDotDpdn[l], acc)
	}

	tr := g.uniform(g.Ranges.Tracer)
	for q := range el.Qdp {
		for tl := range el.Qdp[q] {
			fill3D(&el.Qdp[q][tl], tr)
		}
	}
}
