package config

// BuildAPIKey is injected at link time:
//
//	go build -ldflags "-X github.com/penwyp/go-team-monitor/internal/config.BuildAPIKey=..."
var BuildAPIKey string

// undefinedSentinel is what an unset build variable renders as in some
// build pipelines; it is treated as absent.
const undefinedSentinel = "undefined"

// Resolver determines the API credential. Inputs are captured at
// construction, so Credential is a pure function.
type Resolver struct {
	buildKey string
	runtime  *RuntimeConfig
}

// NewResolver captures the current BuildAPIKey and the injected runtime
// configuration (which may be nil).
func NewResolver(runtime *RuntimeConfig) *Resolver {
	return NewResolverWithBuildKey(BuildAPIKey, runtime)
}

// NewResolverWithBuildKey is NewResolver with an explicit build-time value
func NewResolverWithBuildKey(buildKey string, runtime *RuntimeConfig) *Resolver {
	return &Resolver{buildKey: buildKey, runtime: runtime}
}

// Credential returns the build-time key, else the runtime key, else "".
func (r *Resolver) Credential() string {
	if r.buildKey != "" && r.buildKey != undefinedSentinel {
		return r.buildKey
	}
	if r.runtime != nil && r.runtime.APIKey != "" {
		return r.runtime.APIKey
	}
	return ""
}
