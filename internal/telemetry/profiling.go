package telemetry

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig configures Pyroscope continuous profiling of the API
// server.
type ProfilingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server URL, e.g. "http://localhost:4040".
	Endpoint string

	// ProfileTypes names the profiles to collect. See ProfileTypeNames.
	ProfileTypes []string

	// Tags are attached to every profile next to the version, e.g. the
	// permission backend in use.
	Tags map[string]string
}

var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// ProfileTypeNames returns the accepted profile type names, sorted.
func ProfileTypeNames() []string {
	names := make([]string, 0, len(profileTypes))
	for n := range profileTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateProfileTypes reports the first unknown name in names.
func ValidateProfileTypes(names []string) error {
	for _, n := range names {
		if _, err := parseProfileType(n); err != nil {
			return err
		}
	}
	return nil
}

var profilingEnabled bool

// InitProfiling starts the Pyroscope profiler. The returned shutdown
// stops it; when profiling is disabled it is a no-op.
func InitProfiling(cfg ProfilingConfig) (shutdown func() error, err error) {
	profilingEnabled = false
	if !cfg.Enabled {
		return func() error { return nil }, nil
	}

	types := make([]pyroscope.ProfileType, 0, len(cfg.ProfileTypes))
	seen := make(map[string]bool, len(cfg.ProfileTypes))
	for _, name := range cfg.ProfileTypes {
		if seen[name] {
			continue
		}
		seen[name] = true

		pt, err := parseProfileType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, pt)
	}

	// Mutex and block profiles sample nothing until the runtime rates are set.
	if seen["mutex_count"] || seen["mutex_duration"] {
		runtime.SetMutexProfileFraction(5)
	}
	if seen["block_count"] || seen["block_duration"] {
		runtime.SetBlockProfileRate(5)
	}

	tags := map[string]string{"version": cfg.ServiceVersion}
	for k, v := range cfg.Tags {
		tags[k] = v
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            tags,
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start Pyroscope profiler: %w", err)
	}
	profilingEnabled = true

	return profiler.Stop, nil
}

// IsProfilingEnabled returns whether the profiler is running.
func IsProfilingEnabled() bool {
	return profilingEnabled
}

func parseProfileType(name string) (pyroscope.ProfileType, error) {
	pt, ok := profileTypes[name]
	if !ok {
		return "", fmt.Errorf("invalid profile type %q", name)
	}
	return pt, nil
}
