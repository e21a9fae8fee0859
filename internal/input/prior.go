package input

import (
	"fmt"
	"math"

	"github.com/conneroisu/strata/internal/csvio"
	serrors "github.com/conneroisu/strata/internal/errors"
	"github.com/conneroisu/strata/internal/prior"
	"github.com/conneroisu/strata/internal/world"
	"gonum.org/v1/gonum/mat"
)

// ParsePrior reads the prior over world parameters.
//
// Control points have a zero mean coupled Gaussian prior bounded by the
// per-point minimum and maximum grids; rock properties have a full
// Gaussian prior per layer. When boundaries are times the P-wave velocity
// is always sampled, and mtaniso.ignoreAniso fixes the anisotropic
// resistivity terms at their means.
func ParsePrior(f *File) (*prior.WorldPrior, error) {
	masks := f.Files(KeyCtrlPointMasks)
	mins := f.Files(KeyCtrlPointMins)
	maxs := f.Files(KeyCtrlPointMaxs)
	coupled, err := f.Floats(KeyCoupledSDs)
	if err != nil {
		return nil, err
	}
	uncoupled, err := f.Floats(KeyUncoupledSDs)
	if err != nil {
		return nil, err
	}
	n := len(masks)
	if len(mins) != n || len(maxs) != n || len(coupled) != n || len(uncoupled) != n {
		return nil, serrors.Mismatch("control point masks/mins/maxs/coupledSDs/uncoupledSDs have %d/%d/%d/%d/%d entries",
			n, len(mins), len(maxs), len(coupled), len(uncoupled))
	}
	classes, err := parseClasses(f, n)
	if err != nil {
		return nil, err
	}

	means := f.Files(KeyRockMeans)
	rmins := f.Files(KeyRockMins)
	rmaxs := f.Files(KeyRockMaxs)
	covs := f.Files(KeyRockCovariances)
	rmasks := f.Files(KeyRockMasks)
	if len(means) != n || len(rmins) != n || len(rmaxs) != n || len(covs) != n || len(rmasks) != n {
		return nil, serrors.Mismatch("%d boundaries but rock means/mins/maxs/covariances/masks have %d/%d/%d/%d/%d entries",
			n, len(means), len(rmins), len(rmaxs), len(covs), len(rmasks))
	}

	useTimes := f.Bool(KeyUseTimes)
	ignoreAniso := f.Bool(KeyIgnoreAniso)

	ec := serrors.NewErrorCollector()
	layers := make([]prior.LayerPrior, 0, n)
	for i := 0; i < n; i++ {
		layer := prior.LayerPrior{
			Class:       classes[i],
			CoupledSD:   coupled[i],
			UncoupledSD: uncoupled[i],
		}
		if err := readCtrlPrior(&layer, masks[i], mins[i], maxs[i]); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		if err := readRockPrior(&layer, means[i], rmins[i], rmaxs[i], covs[i], rmasks[i]); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
		checkLayerPrior(ec, f.Warnings, i+1, layer)

		if useTimes {
			layer.PropMask[world.PWaveVelocity] = true
		}
		if ignoreAniso {
			layer.PropMask[world.LogResistivityY] = false
			layer.PropMask[world.LogResistivityZ] = false
			layer.PropMask[world.ResistivityPhase] = false
		}
		layers = append(layers, layer)
	}
	if err := ec.Err(); err != nil {
		return nil, err
	}
	return prior.NewWorldPrior(layers)
}

func readCtrlPrior(layer *prior.LayerPrior, maskFile, minFile, maxFile string) error {
	mask, err := csvio.ReadIntMatrix(maskFile)
	if err != nil {
		return err
	}
	lo, err := csvio.ReadMatrix(minFile)
	if err != nil {
		return err
	}
	hi, err := csvio.ReadMatrix(maxFile)
	if err != nil {
		return err
	}
	layer.CtrlMask = boolGrid(csvio.Flip(mask))
	layer.CtrlMin = csvio.FlipDense(lo)
	layer.CtrlMax = csvio.FlipDense(hi)
	layer.CtrlPoints = prior.CoupledGaussianBlock(make([]float64, layer.NumCtrlPoints()), layer.CoupledSD, layer.UncoupledSD)
	return nil
}

func readRockPrior(layer *prior.LayerPrior, meanFile, minFile, maxFile, covFile, maskFile string) error {
	mean, err := csvio.ReadVector(meanFile)
	if err != nil {
		return err
	}
	if layer.PropMin, err = csvio.ReadVector(minFile); err != nil {
		return err
	}
	if layer.PropMax, err = csvio.ReadVector(maxFile); err != nil {
		return err
	}
	cov, err := csvio.ReadMatrix(covFile)
	if err != nil {
		return err
	}
	mask, err := csvio.ReadVector(maskFile)
	if err != nil {
		return err
	}

	n := int(world.Count)
	if len(mean) != n || len(layer.PropMin) != n || len(layer.PropMax) != n || len(mask) != n {
		return serrors.Mismatch("rock mean/min/max/mask have %d/%d/%d/%d entries, want %d",
			len(mean), len(layer.PropMin), len(layer.PropMax), len(mask), n)
	}
	if r, c := cov.Dims(); r != n || c != n {
		return serrors.Mismatch("rock covariance is %dx%d, want %dx%d", r, c, n, n)
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, cov.At(i, j))
		}
	}
	if layer.Properties, err = prior.NewGaussian(mean, sym); err != nil {
		return err
	}
	layer.PropMask = make([]bool, n)
	for i, v := range mask {
		layer.PropMask[i] = v != 0
	}
	return nil
}

// checkLayerPrior reports bounds that exclude the prior mean as errors and
// means within one standard deviation of a bound as warnings.
func checkLayerPrior(ec, warnings *serrors.ErrorCollector, index int, l prior.LayerPrior) {
	rows, cols := l.CtrlMin.Dims()
	if hr, hc := l.CtrlMax.Dims(); hr != rows || hc != cols || rows != len(l.CtrlMask) || cols != len(l.CtrlMask[0]) {
		ec.Addf(KeyCtrlPointMasks, index, "mask, min and max grids differ in shape")
		return
	}
	for j := 0; j < rows; j++ {
		for k := 0; k < cols; k++ {
			lo, hi := l.CtrlMin.At(j, k), l.CtrlMax.At(j, k)
			if !(lo < 0 && hi > 0) {
				ec.Addf(KeyCtrlPointMins, index, "control point %d,%d bounds [%g, %g] must straddle zero", j+1, k+1, lo, hi)
			}
		}
	}
	if l.CoupledSD == 0 && l.UncoupledSD == 0 {
		ec.Addf(KeyCoupledSDs, index, "coupled and uncoupled SDs are both zero")
	}

	for p, mu := range l.Properties.Mu {
		lo, hi := l.PropMin[p], l.PropMax[p]
		name := world.RockProperty(p).String()
		if !(lo < mu && mu < hi) {
			ec.Addf(KeyRockMeans, index, "%s mean %g is not inside (%g, %g)", name, mu, lo, hi)
			continue
		}
		sd := math.Sqrt(l.Properties.Sigma.At(p, p))
		if hi <= mu+sd {
			warnings.Warnf(KeyRockMaxs, index, "%s mean is within one SD of its maximum", name)
		}
		if lo >= mu-sd {
			warnings.Warnf(KeyRockMins, index, "%s mean is within one SD of its minimum", name)
		}
	}
}
