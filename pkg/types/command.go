package types

import (
	"fmt"
	"strings"
)

// CommandKind names a requested transition.
type CommandKind string

const (
	CommandBacklog  CommandKind = "backlog"  // return to Backlog
	CommandClaim    CommandKind = "claim"    // take ownership
	CommandProcess  CommandKind = "process"  // start or continue work
	CommandVerify   CommandKind = "verify"   // hand off for verification
	CommandComplete CommandKind = "complete" // finish
	CommandReject   CommandKind = "reject"   // discard
)

// AllCommandKinds returns the six command kinds.
func AllCommandKinds() []CommandKind {
	return []CommandKind{CommandBacklog, CommandClaim, CommandProcess, CommandVerify, CommandComplete, CommandReject}
}

// IsValid reports whether k is a known command kind.
func (k CommandKind) IsValid() bool {
	switch k {
	case CommandBacklog, CommandClaim, CommandProcess, CommandVerify, CommandComplete, CommandReject:
		return true
	default:
		return false
	}
}

func (k CommandKind) String() string {
	return string(k)
}

// ParseCommandKind converts user input to a CommandKind, ignoring case.
func ParseCommandKind(s string) (CommandKind, error) {
	k := CommandKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidCommand, s)
	}
	return k, nil
}

// Command is an immutable transition request. Build one with NewCommand.
type Command struct {
	kind  CommandKind
	owner string
	note  string
}

// NewCommand validates and returns a Command. The note is always required;
// the owner is required only for CommandClaim. Whether the command is legal
// for a particular task is decided later by Task.Apply.
func NewCommand(kind CommandKind, owner, note string) (Command, error) {
	if !kind.IsValid() {
		return Command{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidCommand, kind)
	}
	if note == "" {
		return Command{}, fmt.Errorf("%w: note is required", ErrInvalidCommand)
	}
	if kind == CommandClaim && owner == "" {
		return Command{}, fmt.Errorf("%w: claim requires an owner", ErrInvalidCommand)
	}
	return Command{kind: kind, owner: owner, note: note}, nil
}

// Kind returns the command kind.
func (c Command) Kind() CommandKind { return c.kind }

// Owner returns the owner carried by the command, possibly empty.
func (c Command) Owner() string { return c.owner }

// Note returns the note text.
func (c Command) Note() string { return c.note }
