package telemetry

// Config configures OTLP tracing of permission operations and jobs.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector, e.g. "localhost:4317".
	Endpoint string
	Insecure bool

	// SampleRate is the fraction of root spans kept, from 0 to 1.
	SampleRate float64
}

const (
	defaultTraceEndpoint   = "localhost:4317"
	defaultProfileEndpoint = "http://localhost:4040"
)

// DefaultConfig returns tracing disabled, pointed at a local collector
// and keeping every trace.
func DefaultConfig() Config {
	return Config{
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
		Endpoint:       defaultTraceEndpoint,
		Insecure:       true,
		SampleRate:     1.0,
	}
}

// DefaultProfilingConfig returns profiling disabled, pointed at a local
// Pyroscope, collecting CPU and heap profiles.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
		Endpoint:       defaultProfileEndpoint,
		ProfileTypes:   []string{"cpu", "alloc_space", "inuse_space"},
	}
}
