package model

import "strconv"

// ActionKind is the closed set of label-log actions the engine understands.
// Codes outside the set decode to ActionUnknown.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionAddObject
	ActionEditObject
	ActionDeleteObject
	ActionStartLabeling
	ActionEndLabeling
	ActionTaskSubmit
	ActionLabelApprove
	ActionLabelReject
	ActionLabelSubmit
	ActionTaskApprove
	ActionTaskReject
)

// Scope tells whether an action applies to a single label or a whole task.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeLabel
	ScopeTask
)

// Outcome is the verdict of a review action.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeApprove
	OutcomeReject
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApprove:
		return "approve"
	case OutcomeReject:
		return "reject"
	default:
		return "none"
	}
}

type actionInfo struct {
	code    int
	name    string
	scope   Scope
	outcome Outcome
	submit  bool
}

// platform codes; see the label-log action table of the labeling platform.
var actions = map[ActionKind]actionInfo{
	ActionAddObject:     {code: 0, name: "add_object", scope: ScopeLabel},
	ActionEditObject:    {code: 1, name: "edit_object", scope: ScopeLabel},
	ActionDeleteObject:  {code: 2, name: "delete_object", scope: ScopeLabel},
	ActionStartLabeling: {code: 3, name: "start_labeling", scope: ScopeTask},
	ActionEndLabeling:   {code: 4, name: "end_labeling", scope: ScopeTask},
	ActionTaskSubmit:    {code: 11, name: "task_submit", scope: ScopeTask, submit: true},
	ActionLabelApprove:  {code: 12, name: "label_approve", scope: ScopeLabel, outcome: OutcomeApprove},
	ActionLabelReject:   {code: 13, name: "label_reject", scope: ScopeLabel, outcome: OutcomeReject},
	ActionLabelSubmit:   {code: 28, name: "label_submit", scope: ScopeLabel, submit: true},
	ActionTaskApprove:   {code: 33, name: "task_approve", scope: ScopeTask, outcome: OutcomeApprove},
	ActionTaskReject:    {code: 34, name: "task_reject", scope: ScopeTask, outcome: OutcomeReject},
}

var byCode = func() map[int]ActionKind {
	m := make(map[int]ActionKind, len(actions))
	for k, info := range actions {
		m[info.code] = k
	}
	return m
}()

// ActionFromCode maps a platform action code to its kind.
func ActionFromCode(code int) ActionKind {
	if k, ok := byCode[code]; ok {
		return k
	}
	return ActionUnknown
}

// Code returns the platform code, or -1 for ActionUnknown.
func (a ActionKind) Code() int {
	if info, ok := actions[a]; ok {
		return info.code
	}
	return -1
}

func (a ActionKind) String() string {
	if info, ok := actions[a]; ok {
		return info.name
	}
	return "unknown(" + strconv.Itoa(int(a)) + ")"
}

// Scope reports whether the action targets a label or a task.
func (a ActionKind) Scope() Scope { return actions[a].scope }

// Outcome is OutcomeNone for everything but approve/reject actions.
func (a ActionKind) Outcome() Outcome { return actions[a].outcome }

// IsSubmit reports whether the action hands work over for review.
func (a ActionKind) IsSubmit() bool { return actions[a].submit }

// IsReview reports whether the action is an approve or reject.
func (a ActionKind) IsReview() bool { return a.Outcome() != OutcomeNone }

// Known reports whether the kind is part of the closed set.
func (a ActionKind) Known() bool {
	_, ok := actions[a]
	return ok
}
