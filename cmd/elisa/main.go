// Command elisa synthesises binary-star observables from a YAML system
// description: light curves, radial-velocity curves, mesh dumps and system
// diagnostics.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stefanparimucha/elisa/config"
	"github.com/stefanparimucha/elisa/curve"
	"github.com/stefanparimucha/elisa/mesh"
	"github.com/stefanparimucha/elisa/radiance"
	"github.com/stefanparimucha/elisa/roche"
	"github.com/stefanparimucha/elisa/system"
)

var (
	cfgFile    string
	systemFlag string

	phaseFrom  float64
	phaseTo    float64
	phaseCount int
)

func main() {
	root := &cobra.Command{
		Use:           "elisa",
		Short:         "Eclipsing binary forward model: Roche geometry and curve synthesis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "engine configuration file (YAML)")
	root.PersistentFlags().StringVar(&systemFlag, "system", "system.yaml", "system description file")

	observe := &cobra.Command{
		Use:   "observe",
		Short: "Compute light and radial-velocity curves over a phase range",
		RunE:  runObserve,
	}
	observe.Flags().Float64Var(&phaseFrom, "from", -0.5, "first phase")
	observe.Flags().Float64Var(&phaseTo, "to", 0.5, "last phase")
	observe.Flags().IntVar(&phaseCount, "points", 100, "number of phases")

	info := &cobra.Command{
		Use:   "info",
		Short: "Report morphology, radii and critical potentials",
		RunE:  runInfo,
	}

	meshCmd := &cobra.Command{
		Use:   "mesh",
		Short: "Dump the surface meshes of both components as JSON",
		RunE:  runMesh,
	}

	root.AddCommand(observe, info, meshCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "elisa:", err)
		os.Exit(1)
	}
}

func buildEngine() (*curve.Engine, *system.BinarySystem, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	s, err := loadSystem(systemFlag)
	if err != nil {
		return nil, nil, err
	}

	var atlas radiance.Atlas = &radiance.PlanckAtlas{}
	if cfg.AtmosphereTables != "" {
		atlas = &radiance.DirAtlas{Dir: cfg.AtmosphereTables, Prefix: cfg.Atlas}
	}
	law, err := radiance.ParseLDLaw(cfg.LimbDarkeningLaw)
	if err != nil {
		return nil, nil, err
	}
	ev := &radiance.Evaluator{
		Atlas: atlas,
		LD:    radiance.ConstantLD{Values: []float64{0.5, 0.2}},
		Law:   law,
	}

	settings := curve.DefaultSettings()
	settings.ReflectionEffect = cfg.ReflectionEffect
	settings.ReflectionIterations = cfg.ReflectionEffectIterations
	settings.MaxRelativeDRPoint = cfg.MaxRelativeDRPoint
	switch cfg.Approximation {
	case "exact":
		settings.Approximation = curve.Exact
	case "mirror":
		settings.Approximation = curve.Mirror
	case "interpolate":
		settings.Approximation = curve.Interpolate
	case "similarity":
		settings.Approximation = curve.Similarity
	}

	return curve.New(s, ev, settings), s, nil
}

func phaseGrid() []float64 {
	phases := make([]float64, phaseCount)
	for i := range phases {
		if phaseCount == 1 {
			phases[i] = phaseFrom
			continue
		}
		phases[i] = phaseFrom + (phaseTo-phaseFrom)*float64(i)/float64(phaseCount-1)
	}
	return phases
}

func runObserve(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	phases := phaseGrid()

	lc, err := engine.LightCurve(phases, []*radiance.Passband{radiance.Bolometric()})
	if err != nil {
		return err
	}
	rvPrimary, rvSecondary, err := engine.RadialVelocities(phases)
	if err != nil {
		return err
	}

	out := struct {
		Phases      []float64            `json:"phases"`
		Mode        string               `json:"mode"`
		LightCurves map[string][]float64 `json:"light_curves"`
		RV          struct {
			Primary   []float64 `json:"primary"`
			Secondary []float64 `json:"secondary"`
		} `json:"radial_velocities"`
	}{
		Phases:      phases,
		Mode:        engine.Mode().String(),
		LightCurves: lc,
	}
	out.RV.Primary = rvPrimary
	out.RV.Secondary = rvSecondary
	return emit(out)
}

func runInfo(cmd *cobra.Command, args []string) error {
	_, s, err := buildEngine()
	if err != nil {
		return err
	}

	lp, err := roche.Lagrange(s.MassRatio, s.Orbit.PeriastronDistance())
	if err != nil {
		return err
	}
	radiiP, err := s.CharacteristicRadii(system.Primary, 1.0)
	if err != nil {
		return err
	}
	radiiS, err := s.CharacteristicRadii(system.Secondary, 1.0)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"morphology":       s.Morphology.String(),
		"mass_ratio":       s.MassRatio,
		"semi_major_axis":  s.SemiMajorAxis,
		"critical_potential": map[string]float64{
			"primary":   s.CriticalPotentialPrimary,
			"secondary": s.CriticalPotentialSecondary,
		},
		"lagrange": map[string]float64{"l3": lp.L3, "l1": lp.L1, "l2": lp.L2},
		"radii": map[string]system.Radii{
			"primary":   radiiP,
			"secondary": radiiS,
		},
	}
	return emit(out)
}

func runMesh(cmd *cobra.Command, args []string) error {
	_, s, err := buildEngine()
	if err != nil {
		return err
	}

	type meshDump struct {
		Points [][3]float64 `json:"points"`
		Faces  [][3]int     `json:"faces"`
	}
	dump := func(c system.Component) (meshDump, error) {
		m, err := mesh.Build(s, c, 1.0)
		if err != nil {
			return meshDump{}, err
		}
		d := meshDump{Faces: m.Faces}
		for _, p := range m.Points {
			d.Points = append(d.Points, [3]float64{p.X, p.Y, p.Z})
		}
		return d, nil
	}

	primary, err := dump(system.Primary)
	if err != nil {
		return err
	}
	secondary, err := dump(system.Secondary)
	if err != nil {
		return err
	}
	return emit(map[string]meshDump{"primary": primary, "secondary": secondary})
}

func emit(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
