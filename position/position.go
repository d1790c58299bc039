// Package position builds the per-orbital-position snapshot of the system:
// both components' meshes and surface fields rotated into the observer
// frame, where the line of sight is +x and the sky plane is yz.
//
// A container is immutable after positioning, so phase batches can be
// processed by parallel workers over shared component data.
package position

import (
	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/mesh"
	"github.com/stefanparimucha/elisa/orbit"
	"github.com/stefanparimucha/elisa/surface"
	"github.com/stefanparimucha/elisa/system"
	"github.com/stefanparimucha/elisa/units"
)

// Body is one component's geometry in the observer frame, together with
// borrowed references to its phase-invariant surface fields.
type Body struct {
	Component system.Component

	Points  []geometry.Vec3
	Centres []geometry.Vec3
	Normals []geometry.Vec3

	// Borrowed, not rotated: scalar fields are frame-invariant.
	Faces        [][3]int
	FaceSpot     []int
	Areas        []float64
	Temperatures []float64
	LogG         []float64
}

// Container is the snapshot of both components at one orbital position.
type Container struct {
	Position orbit.Position

	Primary   Body
	Secondary Body
}

// New rotates the meshes and fields of both components into the observer
// frame for the given orbital position and inclination.
//
// The mesh arrives in the primary frame (primary centre at the origin,
// secondary at (d, 0, 0)). The transform recentres on the barycentre,
// turns the line of centres by the orbital azimuth so that phase zero puts
// the secondary in front, and tilts by the inclination about the line of
// nodes.
func New(s *system.BinarySystem, pos orbit.Position,
	primaryMesh, secondaryMesh *mesh.Mesh,
	primaryFields, secondaryFields *surface.Fields) *Container {

	q := s.MassRatio
	barycentre := geometry.Vec3{X: pos.Distance * q / (1 + q)}
	azimuthTurn := pos.Azimuth - units.HalfPi
	tilt := units.HalfPi - s.Orbit.Inclination

	transformPoint := func(p geometry.Vec3) geometry.Vec3 {
		p = p.Sub(barycentre)
		p = geometry.RotateZ(p, azimuthTurn)
		return geometry.RotateY(p, tilt)
	}
	transformDir := func(v geometry.Vec3) geometry.Vec3 {
		v = geometry.RotateZ(v, azimuthTurn)
		return geometry.RotateY(v, tilt)
	}

	build := func(c system.Component, m *mesh.Mesh, f *surface.Fields) Body {
		b := Body{
			Component:    c,
			Faces:        m.Faces,
			FaceSpot:     m.FaceSpot,
			Areas:        f.Areas,
			Temperatures: f.Temperatures,
			LogG:         f.LogG,
			Points:       make([]geometry.Vec3, len(m.Points)),
			Centres:      make([]geometry.Vec3, len(f.Centres)),
			Normals:      make([]geometry.Vec3, len(f.Normals)),
		}
		for i, p := range m.Points {
			b.Points[i] = transformPoint(p)
		}
		for i, p := range f.Centres {
			b.Centres[i] = transformPoint(p)
		}
		for i, n := range f.Normals {
			b.Normals[i] = transformDir(n)
		}
		return b
	}

	return &Container{
		Position:  pos,
		Primary:   build(system.Primary, primaryMesh, primaryFields),
		Secondary: build(system.Secondary, secondaryMesh, secondaryFields),
	}
}

// LineOfSight is the observer direction in the container frame.
var LineOfSight = geometry.Vec3{X: 1}

// VisibleFaces returns the indices of faces whose normals point toward the
// observer (the dark-side filter).
func (b *Body) VisibleFaces() []int {
	out := make([]int, 0, len(b.Normals)/2)
	for i, n := range b.Normals {
		if n.Dot(LineOfSight) > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Cosines returns μ = normal·LOS per face; non-positive values mark faces
// turned away.
func (b *Body) Cosines() []float64 {
	out := make([]float64, len(b.Normals))
	for i, n := range b.Normals {
		out[i] = n.Dot(LineOfSight)
	}
	return out
}

// Front reports which body is closer to the observer, by the depth of the
// component centres along the line of sight.
func (c *Container) Front() (front, back *Body) {
	// Use mean centre depth as the component depth proxy.
	depth := func(b *Body) float64 {
		sum := 0.0
		for _, p := range b.Centres {
			sum += p.X
		}
		if len(b.Centres) == 0 {
			return 0
		}
		return sum / float64(len(b.Centres))
	}
	if depth(&c.Primary) >= depth(&c.Secondary) {
		return &c.Primary, &c.Secondary
	}
	return &c.Secondary, &c.Primary
}

// ProjectSky projects an observer-frame point onto the sky plane.
func ProjectSky(p geometry.Vec3) geometry.Point2 {
	return geometry.Point2{X: p.Y, Y: p.Z}
}

// SkyDepth returns the distance coordinate along the line of sight; larger
// is closer to the observer.
func SkyDepth(p geometry.Vec3) float64 { return p.X }

// Separation returns the instantaneous dimensionless separation.
func (c *Container) Separation() float64 { return c.Position.Distance }
