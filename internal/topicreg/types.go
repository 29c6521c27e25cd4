// Package topicreg implements the Topic Registry: for each locally owned
// topic, a subscriber table keyed by subscriber id and a retention store
// keyed by message id (spec.md §3 Topic, §9 concurrent map guidance).
package topicreg

import (
	"encoding/json"
	"fmt"
)

// Priority is the ordered enum {low < medium < high}; default low
// (spec.md §3).
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "low"
	}
}

// ParsePriority parses the wire string form, defaulting to low on an empty
// string so query parameters and JSON bodies without a priority field get
// the spec.md default.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityLow, fmt.Errorf("topicreg: unknown priority %q", s)
	}
}

func (p Priority) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Mode is the delivery mode enum {push, pull}; default push (spec.md §3).
type Mode int

const (
	ModePush Mode = iota
	ModePull
)

func (m Mode) String() string {
	if m == ModePull {
		return "pull"
	}
	return "push"
}

// ParseMode parses the wire string form, defaulting to push on empty.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "push":
		return ModePush, nil
	case "pull":
		return ModePull, nil
	default:
		return ModePush, fmt.Errorf("topicreg: unknown mode %q", s)
	}
}

func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
