package types

// ownerEffect describes what a transition does to the owner.
type ownerEffect int

const (
	ownerKeep  ownerEffect = iota
	ownerClaim             // take the command's owner
	ownerClear             // reset to Unowned
)

// verifiedEffect describes what a transition does to the verified flag.
type verifiedEffect int

const (
	verifiedKeep verifiedEffect = iota
	verifiedSet
	verifiedClear
)

type transitionKey struct {
	from State
	kind CommandKind
}

// transition is one row of the workflow table. When allow is set the row
// only applies to task types for which it returns true.
type transition struct {
	to       State
	owner    ownerEffect
	verified verifiedEffect
	allow    func(TaskType) bool
}

func verifiable(t TaskType) bool { return !t.SkipsVerification() }

// transitions is the complete workflow. Pairs not listed are illegal.
var transitions = map[transitionKey]transition{
	{StateBacklog, CommandClaim}:  {to: StateOwned, owner: ownerClaim},
	{StateBacklog, CommandReject}: {to: StateRejected},

	{StateOwned, CommandReject}:  {to: StateRejected, owner: ownerClear},
	{StateOwned, CommandProcess}: {to: StateProcessing},
	{StateOwned, CommandBacklog}: {to: StateBacklog, owner: ownerClear},

	{StateVerifying, CommandComplete}: {to: StateDone, verified: verifiedSet},
	{StateVerifying, CommandProcess}:  {to: StateProcessing},

	{StateProcessing, CommandVerify}:   {to: StateVerifying, allow: verifiable},
	{StateProcessing, CommandProcess}:  {to: StateProcessing},
	{StateProcessing, CommandBacklog}:  {to: StateBacklog, owner: ownerClear},
	{StateProcessing, CommandComplete}: {to: StateDone, allow: TaskType.SkipsVerification},

	{StateDone, CommandProcess}: {to: StateProcessing, verified: verifiedClear},
	{StateDone, CommandBacklog}: {to: StateBacklog, owner: ownerClear, verified: verifiedClear},

	{StateRejected, CommandBacklog}: {to: StateBacklog},
}

// CanApply reports whether kind is a legal command for t right now.
func (t *Task) CanApply(kind CommandKind) bool {
	_, ok := t.lookup(kind)
	return ok
}

func (t *Task) lookup(kind CommandKind) (transition, bool) {
	tr, ok := transitions[transitionKey{t.state, kind}]
	if !ok || (tr.allow != nil && !tr.allow(t.taskType)) {
		return transition{}, false
	}
	return tr, true
}

// Apply runs c against the task. Illegal (state, kind) pairs return a
// *TransitionError. On any error the task is left exactly as it was: the
// next field values are computed and checked before anything is assigned.
func (t *Task) Apply(c Command) error {
	tr, ok := t.lookup(c.Kind())
	if !ok {
		return &TransitionError{From: t.state, Kind: c.Kind()}
	}
	if c.Note() == "" {
		return ErrInvalidCommand
	}

	owner := t.owner
	switch tr.owner {
	case ownerClaim:
		owner = c.Owner()
	case ownerClear:
		owner = Unowned
	}

	verified := t.verified
	switch tr.verified {
	case verifiedSet:
		verified = true
	case verifiedClear:
		verified = false
	}

	if err := checkOwner(tr.to, owner); err != nil {
		return err
	}
	if err := checkVerified(tr.to, t.taskType, verified); err != nil {
		return err
	}

	note := tagNote(t.state, c.Note())
	t.state = tr.to
	t.owner = owner
	t.verified = verified
	t.notes = append(t.notes, note)
	return nil
}
