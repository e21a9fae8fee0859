package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/strata/internal/csvio"
	"github.com/conneroisu/strata/internal/prior"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Document is the section → key → value form of a world file.
type Document map[string]map[string]any

func (d Document) set(key string, value any) {
	section, name, _ := strings.Cut(key, ".")
	if d[section] == nil {
		d[section] = map[string]any{}
	}
	d[section][name] = value
}

// Merge copies every key of other into d, replacing existing values.
func (d Document) Merge(other Document) Document {
	for section, keys := range other {
		for k, v := range keys {
			d.set(section+"."+k, v)
		}
	}
	return d
}

// Save writes the merged documents as YAML to path.
func Save(path string, docs ...Document) error {
	out := Document{}
	for _, d := range docs {
		out.Merge(d)
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode world file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// writer writes CSV files named prefix+base+".csv" into dir and returns
// the names relative to dir. After the first failure every write is
// skipped and err holds the failure.
type writer struct {
	dir    string
	prefix string
	err    error
}

func (w *writer) path(base string) (string, string) {
	rel := w.prefix + base + ".csv"
	return rel, filepath.Join(w.dir, rel)
}

func (w *writer) write(base string, fn func(path string) error) string {
	rel, path := w.path(base)
	if w.err == nil {
		w.err = fn(path)
	}
	return rel
}

// grid writes an in-memory grid in the on-disk orientation.
func (w *writer) grid(base string, m mat.Matrix) string {
	return w.write(base, func(path string) error { return csvio.WriteMatrix(path, csvio.UnflipDense(m)) })
}

func (w *writer) mask(base string, m [][]bool) string {
	return w.write(base, func(path string) error { return csvio.WriteIntMatrix(path, csvio.Unflip(intGrid(m))) })
}

func (w *writer) matrix(base string, m mat.Matrix) string {
	return w.write(base, func(path string) error { return csvio.WriteMatrix(path, m) })
}

func (w *writer) vector(base string, v []float64) string {
	return w.write(base, func(path string) error { return csvio.WriteVector(path, v) })
}

// WriteSpec writes the offset surfaces and control point masks of spec into
// dir and returns the matching world file settings.
func WriteSpec(dir, prefix string, spec world.WorldSpec) (Document, error) {
	w := &writer{dir: dir, prefix: prefix}
	base := "offsets"
	if spec.BoundariesAreTimes {
		base = "times"
	}
	var offsets, masks, types []string
	for i, b := range spec.Boundaries {
		offsets = append(offsets, w.grid(fmt.Sprintf("%s%d", base, i+1), b.Offset))

		ones := make([][]bool, b.CtrlPointResolution[0])
		for j := range ones {
			ones[j] = make([]bool, b.CtrlPointResolution[1])
			for k := range ones[j] {
				ones[j][k] = true
			}
		}
		masks = append(masks, w.mask(fmt.Sprintf("controlPointMask%d", i+1), ones))
		types = append(types, b.Class.String())
	}
	if w.err != nil {
		return nil, w.err
	}

	doc := Document{}
	doc.set(KeyXRange, []float64{spec.XBounds.Min, spec.XBounds.Max})
	doc.set(KeyYRange, []float64{spec.YBounds.Min, spec.YBounds.Max})
	doc.set(KeyDepthRange, []float64{spec.ZBounds.Min, spec.ZBounds.Max})
	doc.set(KeyUseTimes, spec.BoundariesAreTimes)
	if spec.BoundariesAreTimes {
		doc.set(KeyTimes, offsets)
	} else {
		doc.set(KeyOffsets, offsets)
	}
	doc.set(KeyTypes, types)
	doc.set(KeyCtrlPointMasks, masks)
	return doc, nil
}

// WriteParams writes params into dir as simulation parameters.
func WriteParams(dir, prefix string, params world.WorldParams) (Document, error) {
	w := &writer{dir: dir, prefix: prefix}
	var ctrl, props []string
	for i, c := range params.ControlPoints {
		ctrl = append(ctrl, w.grid(fmt.Sprintf("controlPoints%d", i+1), c))
	}
	for i, p := range params.RockProperties {
		props = append(props, w.vector(fmt.Sprintf("rockProperties%d", i+1), p))
	}
	if w.err != nil {
		return nil, w.err
	}
	doc := Document{}
	doc.set(KeySimCtrlPoints, ctrl)
	doc.set(KeySimLayerProperties, props)
	return doc, nil
}

// WritePrior writes the prior grids and vectors of wp into dir.
func WritePrior(dir, prefix string, wp *prior.WorldPrior) (Document, error) {
	w := &writer{dir: dir, prefix: prefix}
	files := map[string][]string{}
	add := func(key, name string) { files[key] = append(files[key], name) }
	var coupled, uncoupled []float64
	var types []string

	for i, l := range wp.Layers {
		layer := fmt.Sprintf("layer%d", i+1)
		add(KeyCtrlPointMasks, w.mask(layer+"ctrlPointMasks", l.CtrlMask))
		add(KeyCtrlPointMins, w.grid(layer+"ctrlPointMins", l.CtrlMin))
		add(KeyCtrlPointMaxs, w.grid(layer+"ctrlPointMaxs", l.CtrlMax))
		add(KeyRockMeans, w.vector(layer+"rocksMeans", l.Properties.Mu))
		add(KeyRockMins, w.vector(layer+"rocksMins", l.PropMin))
		add(KeyRockMaxs, w.vector(layer+"rocksMaxs", l.PropMax))
		add(KeyRockCovariances, w.matrix(layer+"rocksCovariance", l.Properties.Sigma))
		mask := make([]float64, len(l.PropMask))
		for p, on := range l.PropMask {
			if on {
				mask[p] = 1
			}
		}
		add(KeyRockMasks, w.vector(layer+"rocksMask", mask))

		coupled = append(coupled, l.CoupledSD)
		uncoupled = append(uncoupled, l.UncoupledSD)
		types = append(types, l.Class.String())
	}
	if w.err != nil {
		return nil, w.err
	}

	doc := Document{}
	for k, v := range files {
		doc.set(k, v)
	}
	doc.set(KeyCoupledSDs, coupled)
	doc.set(KeyUncoupledSDs, uncoupled)
	doc.set(KeyTypes, types)
	doc.set(KeyIgnoreAniso, false)
	return doc, nil
}
