// Package internal contains the core implementation packages for strata.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - world: World extent, boundary surfaces, rock properties and validation
//   - grid: Evenly spaced coordinates and grid position helpers
//   - interp: Gaussian process interpolation of boundary control points
//   - layers: Boundary depths, layer thicknesses and voxelisation
//   - prior: Priors over world parameters and the flat parameter vector
//   - csvio: CSV grids and vectors in the on-disk orientation
//   - input: World file parsing and writing
//   - analyse: Voxel volumes and their mean over posterior samples
//   - npz: NumPy archive output
//   - store: SQLite run history
//   - docindex: Documentation navigation index for the world types
//   - config: CLI configuration
//   - errors: Sentinel errors and the validation problem collector
//   - logging: Structured logging on log/slog
//   - watcher: File system monitoring with debouncing
//   - version: Build information
//
// # Data Flow
//
// A world file is parsed by input into a world.WorldSpec, world parameters
// and optionally a prior.WorldPrior. interp builds one interpolator per
// boundary, layers evaluates boundary depths over a query and voxelises
// them, and analyse gathers the volumes for npz to write.
//
// # Testing Strategy
//
//   - Unit tests for individual functions and methods
//   - Property tests behind the property build tag
//   - Integration tests behind the integration build tag
package internal
