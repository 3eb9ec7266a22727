package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCommand(t *testing.T, kind CommandKind, owner, note string) Command {
	t.Helper()
	c, err := NewCommand(kind, owner, note)
	require.NoError(t, err)
	return c
}

// reachable reports whether a task of taskType can ever be in state.
func reachable(state State, taskType TaskType) bool {
	return !(state == StateVerifying && taskType == TypeKnowledgeAcquisition)
}

// taskIn builds a valid task sitting in the given state.
func taskIn(t *testing.T, state State, taskType TaskType) *Task {
	t.Helper()
	owner := Unowned
	if state.HasOwner() {
		owner = "joe"
	}
	task, err := RestoreTask(TaskRecord{
		ID:       7,
		State:    state,
		Title:    "Express carts",
		Type:     taskType,
		Creator:  "sam",
		Owner:    owner,
		Verified: state == StateDone && !taskType.SkipsVerification(),
		Notes:    []string{"[Backlog] created"},
	})
	require.NoError(t, err)
	return task
}

func assertInvariants(t *testing.T, task *Task) {
	t.Helper()
	switch task.State() {
	case StateBacklog, StateRejected:
		assert.Equal(t, Unowned, task.Owner(), "%s task must be unowned", task.State())
	default:
		assert.NotEqual(t, Unowned, task.Owner(), "%s task must be owned", task.State())
	}
	if task.State() == StateDone {
		assert.Equal(t, task.Type() != TypeKnowledgeAcquisition, task.Verified())
	} else {
		assert.False(t, task.Verified())
	}
	assert.NotEmpty(t, task.Notes())
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(1, "Express carts", TypeFeature, "sam", "founding note")
	require.NoError(t, err)

	assert.Equal(t, 1, task.ID())
	assert.Equal(t, "Express carts", task.Title())
	assert.Equal(t, TypeFeature, task.Type())
	assert.Equal(t, "sam", task.Creator())
	assert.Equal(t, StateBacklog, task.State())
	assert.Equal(t, Unowned, task.Owner())
	assert.False(t, task.Verified())
	assert.Equal(t, []string{"[Backlog] founding note"}, task.Notes())
}

func TestNewTaskValidation(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		title    string
		taskType TaskType
		creator  string
		note     string
	}{
		{name: "zero id", id: 0, title: "t", taskType: TypeBug, creator: "c", note: "n"},
		{name: "negative id", id: -3, title: "t", taskType: TypeBug, creator: "c", note: "n"},
		{name: "empty title", id: 1, title: "", taskType: TypeBug, creator: "c", note: "n"},
		{name: "empty creator", id: 1, title: "t", taskType: TypeBug, creator: "", note: "n"},
		{name: "empty note", id: 1, title: "t", taskType: TypeBug, creator: "c", note: ""},
		{name: "unknown type", id: 1, title: "t", taskType: TaskType("X"), creator: "c", note: "n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.id, tt.title, tt.taskType, tt.creator, tt.note)
			assert.ErrorIs(t, err, ErrInvalidTask)
			assert.Nil(t, task)
		})
	}
}

func TestRestoreTask(t *testing.T) {
	valid := TaskRecord{
		ID:       4,
		State:    StateDone,
		Title:    "Weekly repeat",
		Type:     TypeBug,
		Creator:  "sam",
		Owner:    "joe",
		Verified: true,
		Notes:    []string{"[Backlog] created", "[Verifying] looks good"},
	}

	tests := []struct {
		name    string
		mutate  func(r *TaskRecord)
		wantErr bool
	}{
		{name: "valid done bug", mutate: func(r *TaskRecord) {}},
		{name: "done bug unverified", mutate: func(r *TaskRecord) { r.Verified = false }, wantErr: true},
		{name: "done knowledge acquisition unverified", mutate: func(r *TaskRecord) {
			r.Type = TypeKnowledgeAcquisition
			r.Verified = false
		}},
		{name: "done knowledge acquisition verified", mutate: func(r *TaskRecord) {
			r.Type = TypeKnowledgeAcquisition
		}, wantErr: true},
		{name: "processing verified", mutate: func(r *TaskRecord) { r.State = StateProcessing }, wantErr: true},
		{name: "done unowned", mutate: func(r *TaskRecord) { r.Owner = Unowned }, wantErr: true},
		{name: "backlog owned", mutate: func(r *TaskRecord) {
			r.State = StateBacklog
			r.Verified = false
		}, wantErr: true},
		{name: "rejected unowned", mutate: func(r *TaskRecord) {
			r.State = StateRejected
			r.Owner = Unowned
			r.Verified = false
		}},
		{name: "empty owner", mutate: func(r *TaskRecord) { r.Owner = "" }, wantErr: true},
		{name: "unknown state", mutate: func(r *TaskRecord) { r.State = State("Archived") }, wantErr: true},
		{name: "no notes", mutate: func(r *TaskRecord) { r.Notes = nil }, wantErr: true},
		{name: "verifying knowledge acquisition", mutate: func(r *TaskRecord) {
			r.State = StateVerifying
			r.Type = TypeKnowledgeAcquisition
			r.Verified = false
		}, wantErr: true},
		{name: "verifying bug", mutate: func(r *TaskRecord) {
			r.State = StateVerifying
			r.Verified = false
		}},
		{name: "empty note", mutate: func(r *TaskRecord) { r.Notes = []string{"[Backlog] a", ""} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid
			rec.Notes = append([]string(nil), valid.Notes...)
			tt.mutate(&rec)

			task, err := RestoreTask(rec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTask)
				assert.Nil(t, task)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, rec, task.Record())
		})
	}
}

func TestRestoreTaskTagsUntaggedNotes(t *testing.T) {
	task, err := RestoreTask(TaskRecord{
		ID:      1,
		State:   StateOwned,
		Title:   "t",
		Type:    TypeTechnicalWork,
		Creator: "c",
		Owner:   "o",
		Notes:   []string{"[Backlog] kept", "plain"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"[Backlog] kept", "[Owned] plain"}, task.Notes())
}

func TestTaskApply(t *testing.T) {
	tests := []struct {
		from         State
		taskType     TaskType
		kind         CommandKind
		wantState    State
		wantOwner    string
		wantVerified bool
	}{
		{StateBacklog, TypeFeature, CommandClaim, StateOwned, "ann", false},
		{StateBacklog, TypeFeature, CommandReject, StateRejected, Unowned, false},
		{StateOwned, TypeBug, CommandReject, StateRejected, Unowned, false},
		{StateOwned, TypeBug, CommandProcess, StateProcessing, "joe", false},
		{StateOwned, TypeBug, CommandBacklog, StateBacklog, Unowned, false},
		{StateVerifying, TypeTechnicalWork, CommandComplete, StateDone, "joe", true},
		{StateVerifying, TypeTechnicalWork, CommandProcess, StateProcessing, "joe", false},
		{StateProcessing, TypeFeature, CommandVerify, StateVerifying, "joe", false},
		{StateProcessing, TypeFeature, CommandProcess, StateProcessing, "joe", false},
		{StateProcessing, TypeKnowledgeAcquisition, CommandProcess, StateProcessing, "joe", false},
		{StateProcessing, TypeFeature, CommandBacklog, StateBacklog, Unowned, false},
		{StateProcessing, TypeKnowledgeAcquisition, CommandComplete, StateDone, "joe", false},
		{StateDone, TypeBug, CommandProcess, StateProcessing, "joe", false},
		{StateDone, TypeBug, CommandBacklog, StateBacklog, Unowned, false},
		{StateDone, TypeKnowledgeAcquisition, CommandBacklog, StateBacklog, Unowned, false},
		{StateRejected, TypeFeature, CommandBacklog, StateBacklog, Unowned, false},
	}

	for _, tt := range tests {
		name := fmt.Sprintf("%s_%s_%s", tt.from, tt.taskType, tt.kind)
		t.Run(name, func(t *testing.T) {
			task := taskIn(t, tt.from, tt.taskType)
			before := len(task.Notes())

			err := task.Apply(mustCommand(t, tt.kind, "ann", "did it"))

			require.NoError(t, err)
			assert.Equal(t, tt.wantState, task.State())
			assert.Equal(t, tt.wantOwner, task.Owner())
			assert.Equal(t, tt.wantVerified, task.Verified())
			notes := task.Notes()
			require.Len(t, notes, before+1)
			assert.Equal(t, "["+string(tt.from)+"] did it", notes[len(notes)-1])
			assertInvariants(t, task)
		})
	}
}

// legal mirrors the workflow table independently of the implementation.
func legal(state State, taskType TaskType, kind CommandKind) bool {
	ka := taskType == TypeKnowledgeAcquisition
	switch state {
	case StateBacklog:
		return kind == CommandClaim || kind == CommandReject
	case StateOwned:
		return kind == CommandReject || kind == CommandProcess || kind == CommandBacklog
	case StateProcessing:
		switch kind {
		case CommandProcess, CommandBacklog:
			return true
		case CommandVerify:
			return !ka
		case CommandComplete:
			return ka
		}
	case StateVerifying:
		return kind == CommandComplete || kind == CommandProcess
	case StateDone:
		return kind == CommandProcess || kind == CommandBacklog
	case StateRejected:
		return kind == CommandBacklog
	}
	return false
}

func TestTaskApplyIllegalLeavesTaskUnchanged(t *testing.T) {
	for _, state := range AllStates() {
		for _, taskType := range AllTaskTypes() {
			if !reachable(state, taskType) {
				continue
			}
			for _, kind := range AllCommandKinds() {
				if legal(state, taskType, kind) {
					continue
				}
				t.Run(fmt.Sprintf("%s_%s_%s", state, taskType, kind), func(t *testing.T) {
					task := taskIn(t, state, taskType)
					before := task.Record()

					err := task.Apply(mustCommand(t, kind, "ann", "nope"))

					assert.ErrorIs(t, err, ErrInvalidTransition)
					var terr *TransitionError
					require.True(t, errors.As(err, &terr))
					assert.Equal(t, state, terr.From)
					assert.Equal(t, kind, terr.Kind)
					assert.Equal(t, before, task.Record())
					assert.False(t, task.CanApply(kind))
				})
			}
		}
	}
}

func TestTaskInvariantsHoldAfterEveryCommand(t *testing.T) {
	for _, state := range AllStates() {
		for _, taskType := range AllTaskTypes() {
			if !reachable(state, taskType) {
				continue
			}
			for _, kind := range AllCommandKinds() {
				task := taskIn(t, state, taskType)
				err := task.Apply(mustCommand(t, kind, "ann", "step"))
				assert.Equal(t, legal(state, taskType, kind), err == nil,
					"%s %s %s: unexpected result %v", state, taskType, kind, err)
				assertInvariants(t, task)
			}
		}
	}
}

func TestTaskApplyClaimAsUnownedFails(t *testing.T) {
	task := taskIn(t, StateBacklog, TypeFeature)
	before := task.Record()

	err := task.Apply(mustCommand(t, CommandClaim, Unowned, "sneaky"))

	assert.ErrorIs(t, err, ErrInvalidTask)
	assert.Equal(t, before, task.Record())
}

func TestTaskApplyZeroCommand(t *testing.T) {
	task := taskIn(t, StateBacklog, TypeFeature)
	err := task.Apply(Command{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTaskScenarioClaim(t *testing.T) {
	task, err := NewTask(1, "Express carts", TypeFeature, "sam", "created")
	require.NoError(t, err)

	require.NoError(t, task.Apply(mustCommand(t, CommandClaim, "Joe", "x")))

	assert.Equal(t, StateOwned, task.State())
	assert.Equal(t, "Joe", task.Owner())
	notes := task.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, "[Backlog] x", notes[1])
}

func TestTaskScenarioComplete(t *testing.T) {
	ka := taskIn(t, StateProcessing, TypeKnowledgeAcquisition)
	require.NoError(t, ka.Apply(mustCommand(t, CommandComplete, "", "done")))
	assert.Equal(t, StateDone, ka.State())
	assert.False(t, ka.Verified())

	feature := taskIn(t, StateProcessing, TypeFeature)
	err := feature.Apply(mustCommand(t, CommandComplete, "", "done"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateProcessing, feature.State())
}

func TestTaskFullWorkflow(t *testing.T) {
	task, err := NewTask(3, "Carts", TypeBug, "sam", "filed")
	require.NoError(t, err)

	steps := []struct {
		kind  CommandKind
		state State
	}{
		{CommandClaim, StateOwned},
		{CommandProcess, StateProcessing},
		{CommandVerify, StateVerifying},
		{CommandProcess, StateProcessing},
		{CommandVerify, StateVerifying},
		{CommandComplete, StateDone},
		{CommandProcess, StateProcessing},
		{CommandBacklog, StateBacklog},
		{CommandReject, StateRejected},
		{CommandBacklog, StateBacklog},
	}
	for _, s := range steps {
		require.NoError(t, task.Apply(mustCommand(t, s.kind, "joe", string(s.kind))), "applying %s", s.kind)
		assert.Equal(t, s.state, task.State())
		assertInvariants(t, task)
	}
	assert.Len(t, task.Notes(), len(steps)+1)
}

func TestTaskString(t *testing.T) {
	task := taskIn(t, StateDone, TypeBug)
	require.NoError(t, task.Apply(mustCommand(t, CommandProcess, "", "reopened")))

	assert.Equal(t, "7,Processing,Express carts,B,sam,joe,false", task.Fields())
	assert.Equal(t, "\n- [Backlog] created\n- [Done] reopened", task.NotesBlock())
	assert.Equal(t, task.Fields()+task.NotesBlock(), task.String())
}

func TestTaskNotesIsCopy(t *testing.T) {
	task := taskIn(t, StateBacklog, TypeFeature)
	notes := task.Notes()
	notes[0] = "changed"
	assert.Equal(t, "[Backlog] created", task.Notes()[0])
}
