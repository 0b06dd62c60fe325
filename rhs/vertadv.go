package rhs

import "github.com/notargets/SEKernel/element"

// VerticalAdvection computes the centered vertical advection of T and the
// horizontal wind given the interface flux etaDpDeta and the reciprocal
// layer thickness rpdel. It is not part of the default evaluation.
func VerticalAdvection(
	t *element.Scalar3D,
	v *element.Vector3D,
	etaDpDeta *element.Interface3D,
	rpdel *element.Scalar3D,
	tVadv *element.Scalar3D,
	vVadv *element.Vector3D,
) {
	const bot = element.NumLev - 1
	for l := 0; l <= bot; l++ {
		for i := 0; i < element.NP; i++ {
			for j := 0; j < element.NP; j++ {
				var facp, facm float64
				if l < bot {
					facp = 0.5 * rpdel[l][i][j] * etaDpDeta[l+1][i][j]
				}
				if l > 0 {
					facm = 0.5 * rpdel[l][i][j] * etaDpDeta[l][i][j]
				}
				var tv float64
				if l < bot {
					tv += facp * (t[l+1][i][j] - t[l][i][j])
				}
				if l > 0 {
					tv += facm * (t[l][i][j] - t[l-1][i][j])
				}
				tVadv[l][i][j] = tv
				for h := 0; h < 2; h++ {
					var vv float64
					if l < bot {
						vv += facp * (v[l+1][h][i][j] - v[l][h][i][j])
					}
					if l > 0 {
						vv += facm * (v[l][h][i][j] - v[l-1][h][i][j])
					}
					vVadv[l][h][i][j] = vv
				}
			}
		}
	}
}
