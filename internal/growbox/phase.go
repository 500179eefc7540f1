package growbox

// Phase is a growth phase identifier as stored in the current_phase option.
type Phase string

const (
	PhaseSeedling   Phase = "seedling"
	PhaseVegetative Phase = "vegetative"
	PhaseFlowering  Phase = "flowering"
	PhaseDrying     Phase = "drying"
	PhaseCuring     Phase = "curing"
)

// Phases lists all phases in lifecycle order.
var Phases = []Phase{
	PhaseSeedling,
	PhaseVegetative,
	PhaseFlowering,
	PhaseDrying,
	PhaseCuring,
}

// Label returns the capitalized display name of the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseSeedling:
		return "Seedling"
	case PhaseVegetative:
		return "Vegetative"
	case PhaseFlowering:
		return "Flowering"
	case PhaseDrying:
		return "Drying"
	case PhaseCuring:
		return "Curing"
	}
	return string(p)
}

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseSeedling, PhaseVegetative, PhaseFlowering, PhaseDrying, PhaseCuring:
		return true
	}
	return false
}

// HoursOptionKey returns the option key that overrides the phase's daily
// light hours (e.g. "phase_vegetative_hours").
func (p Phase) HoursOptionKey() string {
	return "phase_" + string(p) + "_hours"
}

// defaultLightHours maps each phase to its default daily light hours.
// Drying and curing run dark.
var defaultLightHours = map[Phase]int{
	PhaseSeedling:   18,
	PhaseVegetative: 18,
	PhaseFlowering:  12,
	PhaseDrying:     0,
	PhaseCuring:     0,
}

// DefaultLightHours returns the default daily light hours for a phase,
// 12 for unknown phases.
func DefaultLightHours(p Phase) int {
	if hours, ok := defaultLightHours[p]; ok {
		return hours
	}
	return 12
}

// VPDBand is a target vapor pressure deficit range in kPa.
type VPDBand struct {
	Min float64
	Max float64
}

// vpdTargets maps each phase to its target VPD band.
var vpdTargets = map[Phase]VPDBand{
	PhaseSeedling:   {0.4, 0.8},
	PhaseVegetative: {0.8, 1.2},
	PhaseFlowering:  {1.2, 1.6},
	PhaseDrying:     {0.8, 1.0},
	PhaseCuring:     {0.5, 0.7},
}

// VPDTarget returns the target VPD band for a phase.
// ok is false for unknown phases; callers must not render a band then.
func VPDTarget(p Phase) (VPDBand, bool) {
	band, ok := vpdTargets[p]
	return band, ok
}
