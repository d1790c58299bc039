package surface

import (
	"math"

	"github.com/stefanparimucha/elisa/geometry"
	"github.com/stefanparimucha/elisa/system"
)

// DefaultReflectionIterations is the default number of mutual-heating
// passes.
const DefaultReflectionIterations = 2

// ApplyReflection runs the iterative reflection effect between the two
// components' fields at separation d. Face pairs heat each other when
// their normals point toward one another and the connecting segment is not
// blocked by either star body (approximated by the polar-radius spheres).
//
// Each iteration reads the previous iteration's temperatures, so the
// update is deterministic and order-independent.
func ApplyReflection(s *system.BinarySystem, primary, secondary *Fields, d float64, iterations int) {
	if iterations < 1 {
		iterations = DefaultReflectionIterations
	}

	albedo := [2]float64{s.Primary.Albedo, s.Secondary.Albedo}
	fields := [2]*Fields{primary, secondary}

	// Occluders: bounding spheres of the two bodies.
	solverP := s.Solver(system.Primary)
	solverS := s.Solver(system.Secondary)
	radiusP, errP := solverP.PolarRadius(d)
	radiusS, errS := solverS.PolarRadius(d)
	if errP != nil || errS != nil {
		log.Warn().Msg("reflection effect skipped, polar radii unavailable")
		return
	}
	centres := [2]geometry.Vec3{{}, {X: d}}
	radii := [2]float64{radiusP, radiusS}

	base := [2][]float64{
		append([]float64(nil), primary.Temperatures...),
		append([]float64(nil), secondary.Temperatures...),
	}
	prev := [2][]float64{
		append([]float64(nil), primary.Temperatures...),
		append([]float64(nil), secondary.Temperatures...),
	}

	for iter := 0; iter < iterations; iter++ {
		next := [2][]float64{
			make([]float64, len(base[0])),
			make([]float64, len(base[1])),
		}
		for side := 0; side < 2; side++ {
			other := 1 - side
			recv, src := fields[side], fields[other]
			for i := range recv.Temperatures {
				irradiance := 0.0
				ci, ni := recv.Centres[i], recv.Normals[i]
				for j := range src.Temperatures {
					cj, nj := src.Centres[j], src.Normals[j]
					line := cj.Sub(ci)
					dist2 := line.Dot(line)
					if dist2 == 0 {
						continue
					}
					cosI := ni.Dot(line)
					cosJ := -nj.Dot(line)
					if cosI <= 0 || cosJ <= 0 {
						continue
					}
					// Normalise the direction cosines.
					dist := math.Sqrt(dist2)
					cosI /= dist
					cosJ /= dist

					if geometry.SegmentSphereOcclusion(ci, cj, centres[side], radii[side]*0.99) ||
						geometry.SegmentSphereOcclusion(ci, cj, centres[other], radii[other]*0.99) {
						continue
					}

					tj := prev[other][j]
					irradiance += tj * tj * tj * tj * cosI * cosJ * src.Areas[j] / (math.Pi * dist2)
				}
				tb := base[side][i]
				heated := tb*tb*tb*tb + albedo[side]*irradiance
				next[side][i] = math.Pow(heated, 0.25)
			}
		}
		prev = next
	}

	copy(primary.Temperatures, prev[0])
	copy(secondary.Temperatures, prev[1])
}
