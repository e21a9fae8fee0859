package analyse

import (
	"fmt"

	"github.com/conneroisu/strata/internal/interp"
	"github.com/conneroisu/strata/internal/layers"
	"github.com/conneroisu/strata/internal/npz"
	"github.com/conneroisu/strata/internal/world"
)

// Volumes holds every voxel volume computed for a world. Each volume is
// flattened x, y, z with z fastest.
type Volumes struct {
	// Properties is indexed by stored rock property.
	Properties [][]float64
	// LayerIndex is the mean layer number of each voxel.
	LayerIndex []float64
	// Layers holds the fraction of each voxel inside every layer.
	Layers [][]float64
}

// WorldVolumes voxelises every stored property of params, its layer index
// and the occupancy of each layer over the grid query q.
func WorldVolumes(interps []*interp.Interpolator, params world.WorldParams, q *interp.Query) (*Volumes, error) {
	transitions, err := layers.Transitions(interps, params, q)
	if err != nil {
		return nil, err
	}
	voxelise := func(props []float64) ([]float64, error) {
		return layers.VoxelGridFromTransitions(transitions, q, props)
	}

	v := &Volumes{}
	for _, p := range world.StoredProperties() {
		props, err := world.ExtractProperty(params, p)
		if err != nil {
			return nil, err
		}
		vals, err := voxelise(props)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		v.Properties = append(v.Properties, vals)
	}

	n := len(params.RockProperties)
	if v.LayerIndex, err = voxelise(layers.LayerIndex(n)); err != nil {
		return nil, err
	}
	for l := 0; l < n; l++ {
		vals, err := voxelise(layers.LayerIndicator(l, n))
		if err != nil {
			return nil, err
		}
		v.Layers = append(v.Layers, vals)
	}
	return v, nil
}

// add accumulates o into v, adopting o's shape when v is empty.
func (v *Volumes) add(o *Volumes) {
	if v.LayerIndex == nil {
		v.Properties = make([][]float64, len(o.Properties))
		for i, p := range o.Properties {
			v.Properties[i] = make([]float64, len(p))
		}
		v.LayerIndex = make([]float64, len(o.LayerIndex))
		v.Layers = make([][]float64, len(o.Layers))
		for i, l := range o.Layers {
			v.Layers[i] = make([]float64, len(l))
		}
	}
	for i := range o.Properties {
		addTo(v.Properties[i], o.Properties[i])
	}
	addTo(v.LayerIndex, o.LayerIndex)
	for i := range o.Layers {
		addTo(v.Layers[i], o.Layers[i])
	}
}

func (v *Volumes) scale(f float64) {
	for _, p := range v.Properties {
		scaleBy(p, f)
	}
	scaleBy(v.LayerIndex, f)
	for _, l := range v.Layers {
		scaleBy(l, f)
	}
}

func addTo(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}

func scaleBy(v []float64, f float64) {
	for i := range v {
		v[i] *= f
	}
}

// Dump packages v for writing with the output resolution of vs.
func (v *Volumes) Dump(spec world.WorldSpec, vs world.VoxelSpec) *npz.VoxelDump {
	d := &npz.VoxelDump{
		Resolution: [3]int{vs.XResolution, vs.YResolution, vs.ZResolution},
		XBounds:    spec.XBounds,
		YBounds:    spec.YBounds,
		ZBounds:    spec.ZBounds,
		Layers:     v.Layers,
		LayerIndex: v.LayerIndex,
	}
	for i, vals := range v.Properties {
		d.Properties = append(d.Properties, npz.Volume{Name: world.RockProperty(i).String(), Values: vals})
	}
	return d
}
