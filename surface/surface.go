// Package surface derives the per-face physical fields of a built mesh:
// areas, outward normals, effective surface gravity and effective
// temperature, including spot temperature factors and the optional
// iterative reflection effect between the two components.
package surface

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/logging"
	"github.com/stefanparimucha/elisa/mesh"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

var log = logging.New("surface")

// Fields carries the per-face surface properties of one component at one
// separation. Slices are indexed by face.
type Fields struct {
	Component system.Component

	Centres []geometry.Vec3
	Normals []geometry.Vec3 // unit outward normals
	Areas   []float64       // dimensionless, units of a²

	// LogG is log₁₀ of the surface gravity in cgs.
	LogG []float64

	// Temperatures in K, spot factors applied.
	Temperatures []float64

	// gradients holds the dimensionless |∇Ω| per face between the gravity
	// and temperature passes.
	gradients []float64
}

// Compute derives all surface fields for a mesh at separation d. Symmetric
// meshes evaluate the scalar fields on the canonical faces only and
// broadcast them through the face symmetry vector.
func Compute(s *system.BinarySystem, m *mesh.Mesh, c system.Component, d float64) (*Fields, error) {
	f := &Fields{Component: c}

	f.computeCentresAndNormals(m, c, d)
	f.computeAreas(m)
	if err := f.computeGravity(s, m, c, d); err != nil {
		return nil, err
	}
	f.computeTemperatures(s, m, c)
	return f, nil
}

func (f *Fields) computeCentresAndNormals(m *mesh.Mesh, c system.Component, d float64) {
	centre := geometry.Vec3{}
	if c == system.Secondary {
		centre = geometry.Vec3{X: d}
	}

	f.Centres = make([]geometry.Vec3, len(m.Faces))
	f.Normals = make([]geometry.Vec3, len(m.Faces))
	for i, face := range m.Faces {
		a, b, cc := m.Points[face[0]], m.Points[face[1]], m.Points[face[2]]
		f.Centres[i] = geometry.TriangleCentroid(a, b, cc)
		n := geometry.TriangleNormal(a, b, cc).Normalized()
		if n.Dot(f.Centres[i].Sub(centre)) < 0 {
			n = n.Scale(-1)
		}
		f.Normals[i] = n
	}
}

func (f *Fields) computeAreas(m *mesh.Mesh) {
	f.Areas = make([]float64, len(m.Faces))
	if m.Symmetric {
		base := make([]float64, m.BaseFaceCount)
		for i := 0; i < m.BaseFaceCount; i++ {
			face := m.Faces[i]
			base[i] = geometry.TriangleArea(m.Points[face[0]], m.Points[face[1]], m.Points[face[2]])
		}
		for i := range m.Faces {
			f.Areas[i] = base[m.FaceSymmetry[i]]
		}
		return
	}
	for i, face := range m.Faces {
		f.Areas[i] = geometry.TriangleArea(m.Points[face[0]], m.Points[face[1]], m.Points[face[2]])
	}
}

// computeGravity evaluates |∇Ω| at the face centres, rescales so the pole
// carries the physical polar gravity, and stores log₁₀ g in cgs.
func (f *Fields) computeGravity(s *system.BinarySystem, m *mesh.Mesh, c system.Component, d float64) error {
	pot := s.Potential(c)

	polarGravity, err := s.PolarGravity(c, d)
	if err != nil {
		return errors.WithMessagef(err, "%s polar gravity", c)
	}
	solver := s.Solver(c)
	polarRadius, err := solver.PolarRadius(d)
	if err != nil {
		return err
	}
	var polarGrad float64
	if c == system.Secondary {
		polarGrad = pot.GradientMagnitude(d, 0, polarRadius, d)
	} else {
		polarGrad = pot.GradientMagnitude(0, 0, polarRadius, d)
	}
	scale := polarGravity / polarGrad

	f.gradients = make([]float64, len(m.Faces))
	f.LogG = make([]float64, len(m.Faces))
	evalAt := func(i int) float64 {
		p := f.Centres[i]
		return pot.GradientMagnitude(p.X, p.Y, p.Z, d)
	}
	if m.Symmetric {
		base := make([]float64, m.BaseFaceCount)
		for i := 0; i < m.BaseFaceCount; i++ {
			base[i] = evalAt(i)
		}
		for i := range m.Faces {
			f.gradients[i] = base[m.FaceSymmetry[i]]
		}
	} else {
		for i := range m.Faces {
			f.gradients[i] = evalAt(i)
		}
	}
	for i, g := range f.gradients {
		f.LogG[i] = units.LogGCgs(scale * g)
	}
	return nil
}

// computeTemperatures applies the von Zeipel law against the area-weighted
// mean potential gradient, then multiplies spot faces by their temperature
// factors.
func (f *Fields) computeTemperatures(s *system.BinarySystem, m *mesh.Mesh, c system.Component) {
	st := s.Star(c)
	meanGrad := stat.Mean(f.gradients, f.Areas)

	f.Temperatures = make([]float64, len(m.Faces))
	for i, g := range f.gradients {
		f.Temperatures[i] = st.EffectiveTemperature * math.Pow(g/meanGrad, st.GravityDarkening)
	}
	for i, spotIdx := range m.FaceSpot {
		if spotIdx == mesh.NoSpot {
			continue
		}
		f.Temperatures[i] *= st.Spots[spotIdx].TemperatureFactor
	}
}
