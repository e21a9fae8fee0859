package world

import (
	serrors "github.com/conneroisu/strata/internal/errors"
)

// nonNegative lists the stored properties that must not be negative in a
// simulation parameter set.
var nonNegative = []RockProperty{
	Density,
	ThermalConductivity,
	ThermalProductivity,
	LogResistivityX,
	LogResistivityY,
	LogResistivityZ,
	ResistivityPhase,
	PWaveVelocity,
}

// Validate checks a spec and a parameter set against each other and reports
// every problem found rather than stopping at the first.
func Validate(spec WorldSpec, params WorldParams) error {
	ec := serrors.NewErrorCollector()
	ValidateSpec(spec, ec)
	validateParams(spec, params, ec)
	return ec.Err()
}

// ValidateSpec adds the geometric problems of spec to ec.
func ValidateSpec(spec WorldSpec, ec *serrors.ErrorCollector) {
	checkBounds := func(name string, b Bounds) {
		if b.Max <= b.Min {
			ec.Addf(name, 0, "max (%g) should be more than min (%g)", b.Max, b.Min)
		}
	}
	checkBounds("xBounds", spec.XBounds)
	checkBounds("yBounds", spec.YBounds)
	checkBounds("zBounds", spec.ZBounds)

	if len(spec.Boundaries) == 0 {
		ec.AddError(serrors.ErrEmptyWorld)
	}

	for b, bs := range spec.Boundaries {
		n := b + 1
		if bs.CtrlPointResolution[0] < 1 || bs.CtrlPointResolution[1] < 1 {
			ec.Addf("boundary", n, "control points must be at least 1x1, found %dx%d",
				bs.CtrlPointResolution[0], bs.CtrlPointResolution[1])
		}
		if bs.Offset == nil || bs.Offset.IsEmpty() {
			ec.Addf("boundary", n, "offset is invalid, need at least 1x1 (flat)")
			continue
		}
		if spec.BoundariesAreTimes && b > 0 {
			// later offsets are times, not depths
			continue
		}
		rows, cols := bs.Offset.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				v := bs.Offset.At(i, j)
				if v < spec.ZBounds.Min {
					ec.Addf("boundary", n, "offset point %d, %d is less than depthRange min", i+1, j+1)
				}
				if v > spec.ZBounds.Max {
					ec.Addf("boundary", n, "offset point %d, %d is greater than depthRange max", i+1, j+1)
				}
			}
		}
	}
}

func validateParams(spec WorldSpec, params WorldParams, ec *serrors.ErrorCollector) {
	nb := len(spec.Boundaries)
	if len(params.RockProperties) != nb {
		ec.Addf("layerProperties", 0, "number of sets (%d) must be equal to number of boundaries (%d)",
			len(params.RockProperties), nb)
	}
	if len(params.ControlPoints) != nb {
		ec.Addf("ctrlPoints", 0, "number of sets (%d) must be equal to number of boundaries (%d)",
			len(params.ControlPoints), nb)
	}

	for b, props := range params.RockProperties {
		if len(props) != int(Count) {
			ec.Addf("layerProperties", b+1, "has %d properties, want %d", len(props), int(Count))
			continue
		}
		for _, p := range nonNegative {
			if props[p] < 0 {
				ec.Addf("layerProperties", b+1, "%s must be positive", p)
			}
		}
	}

	for b, cp := range params.ControlPoints {
		if cp == nil || cp.IsEmpty() {
			ec.Addf("ctrlPoints", b+1, "must be at least 1x1")
			continue
		}
		if b >= nb {
			continue
		}
		rows, cols := cp.Dims()
		want := spec.Boundaries[b].CtrlPointResolution
		if rows != want[0] || cols != want[1] {
			ec.Addf("ctrlPoints", b+1, "resolution (%dx%d) does not match mask (%dx%d)", rows, cols, want[0], want[1])
		}
	}
}
