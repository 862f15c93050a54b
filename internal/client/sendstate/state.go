// Package sendstate models the observable lifecycle of the report
// submission pipeline and provides a multi-subscriber broadcaster for
// state transitions.
package sendstate

// Kind is the submission slot's lifecycle phase.
type Kind int

const (
	Idle Kind = iota
	InProgress
	Succeeded
	Failed
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case InProgress:
		return "in_progress"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one published transition. Err is set only for Failed.
type State struct {
	Kind Kind
	Err  error
}
