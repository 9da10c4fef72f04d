package sdk

import (
	"context"
	"fmt"
	"time"
)

// Resource is anything the host can build, command and close.
type Resource interface {
	Name() Name
	// DoCommand takes and returns maps whose leaves are bool, number, string,
	// list, map, nil or []byte.
	DoCommand(ctx context.Context, cmd map[string]any) (map[string]any, error)
	Close(ctx context.Context) error
}

// Reconfigurable resources accept a new config in place instead of being rebuilt.
type Reconfigurable interface {
	Reconfigure(ctx context.Context, deps Dependencies, conf Config) error
}

// Dependencies maps resolved dependency names to running resources.
type Dependencies map[Name]Resource

// Config is the per-resource section of the host configuration.
type Config struct {
	Name       string
	API        API
	Model      Model
	Attributes map[string]any
	DependsOn  []string
}

// ResourceName is the name the resource will be registered under.
func (c Config) ResourceName() Name {
	return NewName(c.API, c.Name)
}

// String returns the string attribute key, or "" when absent or not a string.
func (c Config) String(key string) string {
	s, _ := c.Attributes[key].(string)
	return s
}

// Int returns the numeric attribute key, or def when absent.
func (c Config) Int(key string, def int) (int, error) {
	v, ok := c.Attributes[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, NewConfigError(key, fmt.Sprintf("expected a number, got %T", v))
	}
}

// Duration reads key as a Go duration string ("250ms") or a number of seconds.
func (c Config) Duration(key string, def time.Duration) (time.Duration, error) {
	v, ok := c.Attributes[key]
	if !ok || v == nil {
		return def, nil
	}
	switch d := v.(type) {
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, NewConfigError(key, err.Error())
		}
		return parsed, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	default:
		return 0, NewConfigError(key, fmt.Sprintf("expected a duration, got %T", v))
	}
}
