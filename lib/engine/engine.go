package engine

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplSim      Implementation = "sim"
	ImplJemalloc Implementation = "jemalloc"
)

// Feature represents optional engine capabilities as bit flags
type Feature uint64

const (
	FeatureStats             Feature = 1 << iota // statistics under stats.* are maintained
	FeatureProfiling                             // heap profiling support was compiled in (config.prof)
	FeatureBackgroundThreads                     // background_thread and max_background_threads exist
	FeatureArenaCreate                           // arenas.create can add arenas at runtime
	FeatureThreadCounters                        // thread.allocated(p) and thread.deallocated(p) exist
)

func (f Feature) String() string {
	switch f {
	case FeatureStats:
		return "Stats"
	case FeatureProfiling:
		return "Profiling"
	case FeatureBackgroundThreads:
		return "BackgroundThreads"
	case FeatureArenaCreate:
		return "ArenaCreate"
	case FeatureThreadCounters:
		return "ThreadCounters"
	default:
		return "Unknown"
	}
}

// AllFeatures lists every known feature flag in declaration order.
var AllFeatures = []Feature{
	FeatureStats,
	FeatureProfiling,
	FeatureBackgroundThreads,
	FeatureArenaCreate,
	FeatureThreadCounters,
}

type Info struct {
	Impl              Implementation `json:"impl"`
	Version           string         `json:"version"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Status Codes
// --------------------------------------------------------------------------

// StatusOK is returned by every engine call that succeeded. Any other value is
// an errno code chosen by the engine.
const StatusOK = 0

// MaxDepth is the largest number of components a control name may have.
const MaxDepth = 8

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// Engine is the native allocator's generic control call, expressed as Go.
// Implementations must follow the mallctl calling convention exactly:
//   - names are NUL-terminated byte strings and must not be modified
//   - a nil oldp means "do not return the current value"
//   - a nil newp means "do not set a new value"
//   - when both are given the engine stores newp and returns the previous
//     value in oldp within one indivisible call
//   - len(oldp) and len(newp) must match the control's value size exactly
//
// All methods return StatusOK on success and an errno code otherwise. They never
// block on anything other than the engine's own internal synchronization.
type Engine interface {

	// --------------------------------------------------------------------------
	// Control Operations
	// --------------------------------------------------------------------------

	// Mallctl performs a read, write or update on the control identified by name.
	Mallctl(name []byte, oldp, newp []byte) (status int)

	// MallctlNameToMib translates name into at most len(mib) numeric components.
	// It returns the number of components written. If the name has more
	// components than len(mib) the engine fails with ENOENT.
	MallctlNameToMib(name []byte, mib []uint) (n int, status int)

	// MallctlByMib behaves like Mallctl but addresses the control by a
	// previously resolved MIB.
	MallctlByMib(mib []uint, oldp, newp []byte) (status int)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the engine supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine.
	GetInfo() (info Info)

	// Close releases resources held by the engine.
	Close() (err error)
}

// Factory creates a new engine instance.
type Factory func() (Engine, error)
