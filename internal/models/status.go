package models

// Status is the observation lifecycle state.
//
// User-submitted observations start at pending and move to verified_agg,
// rejected or spam through moderation. API-sourced observations are created
// api_verified and never transition further.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAPIVerified Status = "api_verified"
	StatusVerifiedAgg Status = "verified_agg"
	StatusRejected    Status = "rejected"
	StatusSpam        Status = "spam"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusVerifiedAgg, StatusRejected, StatusSpam},
}

// CanTransition reports whether moving from s to next is a legal transition.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// AggregationEligible reports whether an observation in this status may be
// linked into a disaster event.
func (s Status) AggregationEligible() bool {
	return s == StatusAPIVerified || s == StatusVerifiedAgg
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAPIVerified, StatusVerifiedAgg, StatusRejected, StatusSpam:
		return true
	}
	return false
}
