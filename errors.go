package starjs

import (
	"fmt"

	"github.com/starjs-engine/starjs/internal/value"
)

// Exception wraps a JavaScript value thrown and never caught by a script
// running under Run. It is distinct from a plain Go error (bad config,
// malformed snapshot bytes, context cancellation): those are reported as
// ordinary errors with fmt.Errorf, so "the host misused the API" and
// "the script failed" never share a channel.
type Exception struct {
	Value value.Value
}

func (e *Exception) Error() string {
	return fmt.Sprintf("starjs: uncaught exception: %s", e.Value.TypeOf())
}

// ConfigError describes an invalid RuntimeConfig option. NewRuntime does
// not validate its config, so nothing in this package returns one: a
// zero or negative WithGCThreshold, for instance, is replaced by the
// collector's default.
type ConfigError struct {
	Option string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("starjs: invalid %s: %s", e.Option, e.Reason)
}
