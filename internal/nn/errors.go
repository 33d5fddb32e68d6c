package nn

import "fmt"

// ConfigError reports an invalid layer configuration value. It is
// returned at construction time, before any tensor work happens.
type ConfigError struct {
	Field  string // configuration field name (e.g., "group_size")
	Value  any    // the rejected value
	Reason string // why the value is invalid
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("psroi: invalid %s = %v: %s", e.Field, e.Value, e.Reason)
}

// ShapeError reports a tensor whose shape is incompatible with the
// operation it was passed to.
type ShapeError struct {
	Op     string // operation name (e.g., "psroipool.forward")
	Want   string // description of the expected shape
	Got    string // description of the actual shape
	Detail string // optional extra context
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("psroi: %s: expected %s, got %s", e.Op, e.Want, e.Got)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
