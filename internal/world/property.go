package world

import (
	"math"

	serrors "github.com/conneroisu/strata/internal/errors"
)

const minThermalConductivity = 1e-3

// ExtractProperty returns the value of prop for every layer, bounded to its
// physically meaningful range. Derived properties are 10 raised to the
// stored logarithm.
func ExtractProperty(params WorldParams, prop RockProperty) ([]float64, error) {
	idx, err := prop.StorageIndex()
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(params.RockProperties))
	for i, layer := range params.RockProperties {
		if idx >= len(layer) {
			return nil, serrors.Mismatch("layer %d has %d properties, need index %d", i+1, len(layer), idx)
		}
		out[i] = bound(prop, layer[idx])
	}
	return out, nil
}

func bound(prop RockProperty, raw float64) float64 {
	switch prop {
	case Density, ThermalProductivity, PWaveVelocity:
		return math.Max(raw, 0)
	case ThermalConductivity:
		return math.Max(raw, minThermalConductivity)
	case ResistivityPhase:
		return math.Min(math.Max(raw, 0), math.Pi/2)
	case Susceptibility, ResistivityX, ResistivityY, ResistivityZ:
		return math.Max(math.Pow(10, raw), 0)
	default:
		// log susceptibility and log resistivities are unbounded
		return raw
	}
}
