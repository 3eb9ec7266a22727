package types

import (
	"fmt"
	"strings"
)

// State is the workflow position of a task. The value is the display name,
// which is also what the text format persists.
type State string

const (
	StateBacklog    State = "Backlog"
	StateOwned      State = "Owned"
	StateProcessing State = "Processing"
	StateVerifying  State = "Verifying"
	StateDone       State = "Done"
	StateRejected   State = "Rejected"
)

// AllStates returns every state in workflow order.
func AllStates() []State {
	return []State{StateBacklog, StateOwned, StateProcessing, StateVerifying, StateDone, StateRejected}
}

// IsValid reports whether s is one of the six known states.
func (s State) IsValid() bool {
	switch s {
	case StateBacklog, StateOwned, StateProcessing, StateVerifying, StateDone, StateRejected:
		return true
	default:
		return false
	}
}

// HasOwner reports whether a task in this state must carry a real owner.
// Backlog and Rejected tasks are always Unowned.
func (s State) HasOwner() bool {
	return s != StateBacklog && s != StateRejected
}

func (s State) String() string {
	return string(s)
}

// ParseState converts a persisted state name. Matching is exact.
func ParseState(name string) (State, error) {
	s := State(name)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, name)
	}
	return s, nil
}

// TaskType classifies a task. The value is the short code used on disk.
type TaskType string

const (
	TypeFeature              TaskType = "F"
	TypeBug                  TaskType = "B"
	TypeTechnicalWork        TaskType = "TW"
	TypeKnowledgeAcquisition TaskType = "KA"
)

// AllTaskTypes returns every task type.
func AllTaskTypes() []TaskType {
	return []TaskType{TypeFeature, TypeBug, TypeTechnicalWork, TypeKnowledgeAcquisition}
}

// IsValid reports whether t is a known type code.
func (t TaskType) IsValid() bool {
	switch t {
	case TypeFeature, TypeBug, TypeTechnicalWork, TypeKnowledgeAcquisition:
		return true
	default:
		return false
	}
}

// ShortName returns the on-disk code (F, B, TW, KA).
func (t TaskType) ShortName() string {
	return string(t)
}

// LongName returns the human-readable type name.
func (t TaskType) LongName() string {
	switch t {
	case TypeFeature:
		return "Feature"
	case TypeBug:
		return "Bug"
	case TypeTechnicalWork:
		return "Technical Work"
	case TypeKnowledgeAcquisition:
		return "Knowledge Acquisition"
	default:
		return string(t)
	}
}

// SkipsVerification reports whether tasks of this type complete straight
// from Processing instead of passing through Verifying.
func (t TaskType) SkipsVerification() bool {
	return t == TypeKnowledgeAcquisition
}

// ParseTaskType converts a short code (F, B, TW, KA). Matching is exact.
func ParseTaskType(code string) (TaskType, error) {
	t := TaskType(code)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, code)
	}
	return t, nil
}

// ParseTaskTypeName accepts a short code or a long name, ignoring case and
// treating hyphens and underscores as spaces ("technical-work" works).
func ParseTaskTypeName(name string) (TaskType, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for _, t := range AllTaskTypes() {
		if norm == strings.ToLower(t.ShortName()) || norm == strings.ToLower(t.LongName()) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, name)
}
