// Package world defines the layered-earth world model: the region being
// modelled, the boundary surfaces that split it into layers and the rock
// properties carried by each layer.
//
// Coordinates follow the survey convention: x grows east, y grows north and
// z grows downwards, so larger depths are further from the surface.
package world

import (
	"fmt"
	"strings"

	serrors "github.com/conneroisu/strata/internal/errors"
	"gonum.org/v1/gonum/mat"
)

// RockProperty indexes a layer's property vector.
//
// The properties before Count are stored in every layer. The ones after
// Count are derived from a stored logarithmic value and take no storage.
type RockProperty int

const (
	Density RockProperty = iota
	LogSusceptibility
	ThermalConductivity
	ThermalProductivity
	LogResistivityX
	LogResistivityY
	LogResistivityZ
	ResistivityPhase
	PWaveVelocity
	Count
	Susceptibility
	ResistivityX
	ResistivityY
	ResistivityZ
)

var rockPropertyNames = [...]string{
	Density:             "Density",
	LogSusceptibility:   "LogSusceptibility",
	ThermalConductivity: "ThermalConductivity",
	ThermalProductivity: "ThermalProductivity",
	LogResistivityX:     "LogResistivityX",
	LogResistivityY:     "LogResistivityY",
	LogResistivityZ:     "LogResistivityZ",
	ResistivityPhase:    "ResistivityPhase",
	PWaveVelocity:       "PWaveVelocity",
	Count:               "Count",
	Susceptibility:      "Susceptibility",
	ResistivityX:        "ResistivityX",
	ResistivityY:        "ResistivityY",
	ResistivityZ:        "ResistivityZ",
}

// String returns the property name as it appears in world files.
func (p RockProperty) String() string {
	if p < 0 || int(p) >= len(rockPropertyNames) {
		return fmt.Sprintf("RockProperty(%d)", int(p))
	}
	return rockPropertyNames[p]
}

// IsDerived reports whether the property is computed from a stored log value.
func (p RockProperty) IsDerived() bool {
	return p > Count && int(p) < len(rockPropertyNames)
}

// StorageIndex returns the position in a layer's property vector that holds
// the value p is computed from.
func (p RockProperty) StorageIndex() (int, error) {
	switch {
	case p == Susceptibility:
		return int(LogSusceptibility), nil
	case p == ResistivityX:
		return int(LogResistivityX), nil
	case p == ResistivityY:
		return int(LogResistivityY), nil
	case p == ResistivityZ:
		return int(LogResistivityZ), nil
	case p >= 0 && p < Count:
		return int(p), nil
	default:
		return 0, fmt.Errorf("%w: %s", serrors.ErrUnknownProperty, p)
	}
}

// ParseRockProperty resolves a property name, ignoring case.
func ParseRockProperty(name string) (RockProperty, error) {
	for i, n := range rockPropertyNames {
		if RockProperty(i) == Count {
			continue
		}
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return RockProperty(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", serrors.ErrUnknownProperty, name)
}

// StoredProperties lists the properties held in every layer, in storage order.
func StoredProperties() []RockProperty {
	out := make([]RockProperty, 0, int(Count))
	for p := Density; p < Count; p++ {
		out = append(out, p)
	}
	return out
}

// AllProperties lists every property except the Count marker, in declaration order.
func AllProperties() []RockProperty {
	out := make([]RockProperty, 0, len(rockPropertyNames)-1)
	for i := range rockPropertyNames {
		if RockProperty(i) != Count {
			out = append(out, RockProperty(i))
		}
	}
	return out
}

// BoundaryClass selects how a boundary surface is shaped.
type BoundaryClass int

const (
	// Normal boundaries follow the interpolated control point surface.
	Normal BoundaryClass = iota
	// Warped boundaries describe intrusive bodies; their surface is
	// post-processed into a dome above the previous boundary.
	Warped
)

// String returns the lower-case name used in world files.
func (c BoundaryClass) String() string {
	switch c {
	case Normal:
		return "normal"
	case Warped:
		return "warped"
	default:
		return fmt.Sprintf("BoundaryClass(%d)", int(c))
	}
}

// ParseBoundaryClass resolves "normal" or "warped".
func ParseBoundaryClass(s string) (BoundaryClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "warped":
		return Warped, nil
	default:
		return Normal, fmt.Errorf("%w: %q", serrors.ErrUnknownBoundaryClass, s)
	}
}

// Bounds is a closed [Min, Max] interval along one axis.
type Bounds struct {
	Min float64
	Max float64
}

// Span returns Max - Min.
func (b Bounds) Span() float64 {
	return b.Max - b.Min
}

// BoundarySpec describes one boundary surface.
type BoundarySpec struct {
	// Offset is the depth (or two-way time) surface added to the
	// interpolated control points. Rows index x, columns index y.
	Offset *mat.Dense
	// CtrlPointResolution is the number of control points along x and y.
	CtrlPointResolution [2]int
	Class               BoundaryClass
}

// WorldSpec is the fixed geometry of a world.
type WorldSpec struct {
	XBounds    Bounds
	YBounds    Bounds
	ZBounds    Bounds
	Boundaries []BoundarySpec
	// BoundariesAreTimes makes every boundary after the first an offset in
	// seismic travel time, converted to depth with the P-wave velocity of
	// the layer above it.
	BoundariesAreTimes bool
}

// NewWorldSpec creates a spec with the given extents and no boundaries.
func NewWorldSpec(x1, x2, y1, y2, z1, z2 float64) WorldSpec {
	return WorldSpec{
		XBounds: Bounds{x1, x2},
		YBounds: Bounds{y1, y2},
		ZBounds: Bounds{z1, z2},
	}
}

// WorldParams are the optimised parameters of a world: one property vector
// and one control point grid per layer.
type WorldParams struct {
	RockProperties [][]float64
	ControlPoints  []*mat.Dense
}

// Clone returns a deep copy.
func (p WorldParams) Clone() WorldParams {
	out := WorldParams{
		RockProperties: make([][]float64, len(p.RockProperties)),
		ControlPoints:  make([]*mat.Dense, len(p.ControlPoints)),
	}
	for i, r := range p.RockProperties {
		out.RockProperties[i] = append([]float64(nil), r...)
	}
	for i, c := range p.ControlPoints {
		if c != nil {
			out.ControlPoints[i] = mat.DenseCopyOf(c)
		}
	}
	return out
}

// VoxelSpec is the resolution of a voxelisation. Supersample n evaluates
// the world at 2^n times the resolution on every axis before averaging
// back down.
type VoxelSpec struct {
	XResolution int
	YResolution int
	ZResolution int
	Supersample int
}

// NumVoxels returns the number of cells in the output grid.
func (v VoxelSpec) NumVoxels() int {
	return v.XResolution * v.YResolution * v.ZResolution
}
