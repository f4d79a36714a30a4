package connection

import (
	"fmt"
	"strings"
	"time"
)

type timeoutKind uint8

const (
	timeoutDefault timeoutKind = iota
	timeoutNone
	timeoutValue
)

// Timeout is a request deadline with three states: Default (defer to the next
// level up), None (wait indefinitely) and a concrete duration.
// The zero value is Default.
type Timeout struct {
	kind timeoutKind
	d    time.Duration
}

func DefaultTimeout() Timeout {
	return Timeout{}
}

func NoTimeout() Timeout {
	return Timeout{kind: timeoutNone}
}

// TimeoutOf returns a Timeout of d. A non-positive d means no timeout.
func TimeoutOf(d time.Duration) Timeout {
	if d <= 0 {
		return NoTimeout()
	}
	return Timeout{kind: timeoutValue, d: d}
}

// ParseTimeout reads the textual form used in configuration files:
// "" is Default, "none", "infinite" and "0" are None, anything else is a
// time.ParseDuration string.
func ParseTimeout(s string) (Timeout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultTimeout(), nil
	case "none", "infinite", "0":
		return NoTimeout(), nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return Timeout{}, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	return TimeoutOf(d), nil
}

func (t Timeout) IsDefault() bool {
	return t.kind == timeoutDefault
}

// Duration reports the deadline length. ok is false when there is no deadline,
// which includes the Default state.
func (t Timeout) Duration() (d time.Duration, ok bool) {
	if t.kind != timeoutValue {
		return 0, false
	}
	return t.d, true
}

// Or returns fallback when t is Default.
func (t Timeout) Or(fallback Timeout) Timeout {
	if t.IsDefault() {
		return fallback
	}
	return t
}

func (t Timeout) String() string {
	switch t.kind {
	case timeoutNone:
		return "none"
	case timeoutValue:
		return t.d.String()
	default:
		return "default"
	}
}
