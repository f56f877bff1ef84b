package domain

// Status is the triage state of an alert.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusFalseAlarm   Status = "false_alarm"
)

var AllStatuses = []Status{StatusPending, StatusAcknowledged, StatusResolved, StatusFalseAlarm}

func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, st.Valid()
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAcknowledged, StatusResolved, StatusFalseAlarm:
		return true
	}
	return false
}

// IsTerminal reports whether the alert has been closed by an operator.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusFalseAlarm:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next follows the operator
// lifecycle: pending -> acknowledged, open -> resolved | false_alarm.
// Rewriting the same status is always allowed.
//
// The store itself accepts any write; this table is only enforced when the
// service runs with strict transitions enabled.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAcknowledged || next.IsTerminal()
	case StatusAcknowledged:
		return next.IsTerminal()
	case StatusResolved, StatusFalseAlarm:
		return false
	}
	return false
}
