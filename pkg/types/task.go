package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Unowned is the owner of every task in Backlog or Rejected.
const Unowned = "unowned"

// Task is a unit of work inside a Product. Fields are unexported so that
// the owner and verification invariants hold after every mutation; build
// tasks with NewTask or RestoreTask and change them only through Apply.
type Task struct {
	id       int
	title    string
	taskType TaskType
	creator  string
	state    State
	owner    string
	verified bool
	notes    []string
}

// TaskRecord carries every persisted field of a task. Loaders fill one in
// and hand it to RestoreTask, which re-checks all invariants.
type TaskRecord struct {
	ID       int
	State    State
	Title    string
	Type     TaskType
	Creator  string
	Owner    string
	Verified bool
	Notes    []string
}

// NewTask returns a task in Backlog, unowned and unverified, whose only
// note is the founding note tagged "[Backlog]".
func NewTask(id int, title string, taskType TaskType, creator, note string) (*Task, error) {
	return RestoreTask(TaskRecord{
		ID:      id,
		State:   StateBacklog,
		Title:   title,
		Type:    taskType,
		Creator: creator,
		Owner:   Unowned,
		Notes:   []string{note},
	})
}

// RestoreTask builds a task from stored fields. Any violation of the task
// invariants, or a state the task's type can never reach, fails the whole
// construction with an error wrapping ErrInvalidTask. Notes already starting with "[" are kept verbatim; any
// other note is tagged with the restored state.
func RestoreTask(rec TaskRecord) (*Task, error) {
	if rec.ID <= 0 {
		return nil, fmt.Errorf("%w: id must be positive, got %d", ErrInvalidTask, rec.ID)
	}
	if rec.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if rec.Creator == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidTask)
	}
	if !rec.State.IsValid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, ErrInvalidState)
	}
	if !rec.Type.IsValid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTask, ErrInvalidType)
	}
	if rec.State == StateVerifying && rec.Type.SkipsVerification() {
		return nil, fmt.Errorf("%w: %s task cannot be %s", ErrInvalidTask, rec.Type.LongName(), rec.State)
	}
	if err := checkOwner(rec.State, rec.Owner); err != nil {
		return nil, err
	}
	if err := checkVerified(rec.State, rec.Type, rec.Verified); err != nil {
		return nil, err
	}
	if len(rec.Notes) == 0 {
		return nil, fmt.Errorf("%w: at least one note is required", ErrInvalidTask)
	}

	notes := make([]string, 0, len(rec.Notes))
	for _, n := range rec.Notes {
		if n == "" {
			return nil, fmt.Errorf("%w: notes must not be empty", ErrInvalidTask)
		}
		notes = append(notes, tagNote(rec.State, n))
	}

	return &Task{
		id:       rec.ID,
		title:    rec.Title,
		taskType: rec.Type,
		creator:  rec.Creator,
		state:    rec.State,
		owner:    rec.Owner,
		verified: rec.Verified,
		notes:    notes,
	}, nil
}

// checkOwner enforces: owner is Unowned exactly when the state has no owner.
func checkOwner(state State, owner string) error {
	switch {
	case owner == "":
		return fmt.Errorf("%w: owner is required", ErrInvalidTask)
	case state.HasOwner() && owner == Unowned:
		return fmt.Errorf("%w: %s task must have an owner", ErrInvalidTask, state)
	case !state.HasOwner() && owner != Unowned:
		return fmt.Errorf("%w: %s task cannot be owned by %q", ErrInvalidTask, state, owner)
	}
	return nil
}

// checkVerified enforces: only Done tasks may be verified, and a Done task
// is verified exactly when its type does not skip verification.
func checkVerified(state State, taskType TaskType, verified bool) error {
	if state == StateDone {
		if verified == taskType.SkipsVerification() {
			return fmt.Errorf("%w: done %s task has verified=%t", ErrInvalidTask, taskType.LongName(), verified)
		}
		return nil
	}
	if verified {
		return fmt.Errorf("%w: %s task cannot be verified", ErrInvalidTask, state)
	}
	return nil
}

// tagNote prefixes text with the state name unless it is already tagged.
func tagNote(state State, text string) string {
	if strings.HasPrefix(text, "[") {
		return text
	}
	return "[" + string(state) + "] " + text
}

// ID returns the task id, unique within its product.
func (t *Task) ID() int { return t.id }

// Title returns the task title.
func (t *Task) Title() string { return t.title }

// Type returns the task type.
func (t *Task) Type() TaskType { return t.taskType }

// Creator returns who created the task.
func (t *Task) Creator() string { return t.creator }

// State returns the current state.
func (t *Task) State() State { return t.state }

// Owner returns the owner, or Unowned.
func (t *Task) Owner() string { return t.owner }

// Verified reports whether the task passed verification.
func (t *Task) Verified() bool { return t.verified }

// Notes returns a copy of the audit notes, oldest first.
func (t *Task) Notes() []string { return slices.Clone(t.notes) }

// Record returns the task's fields as a TaskRecord.
func (t *Task) Record() TaskRecord {
	return TaskRecord{
		ID:       t.id,
		State:    t.state,
		Title:    t.title,
		Type:     t.taskType,
		Creator:  t.creator,
		Owner:    t.owner,
		Verified: t.verified,
		Notes:    t.Notes(),
	}
}

// Fields returns the comma-separated header used by the text format:
// id,state,title,type,creator,owner,verified.
func (t *Task) Fields() string {
	return strings.Join([]string{
		strconv.Itoa(t.id),
		string(t.state),
		t.title,
		t.taskType.ShortName(),
		t.creator,
		t.owner,
		strconv.FormatBool(t.verified),
	}, ",")
}

// NotesBlock returns each note on its own line prefixed with "\n- ".
func (t *Task) NotesBlock() string {
	var b strings.Builder
	for _, n := range t.notes {
		b.WriteString("\n- ")
		b.WriteString(n)
	}
	return b.String()
}

// String returns Fields followed by NotesBlock.
func (t *Task) String() string {
	return t.Fields() + t.NotesBlock()
}
