package domain

const (
	StatusActive   = "Active"
	StatusArchived = "Archived"

	ActivityPurchase = "Purchase"
	ActivitySell     = "Sell"

	// MsgInInnerException marks an outer error message that carries no detail of its own.
	MsgInInnerException = "See the inner exception for details"

	StandardPageSize = 10
	MaxPageSize      = 100

	// RequestSiteOrdered is stored in Outlet.RequestSite once a site was ordered.
	RequestSiteOrdered = 1
)

// Outcome is the tri-state result of operations that have a business rejection case.
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}
