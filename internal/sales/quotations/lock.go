package quotations

import (
	"fmt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Decision is the lock policy verdict. Reason is set when revision is
// refused and travels verbatim into the error the caller sees.
type Decision struct {
	Allowed bool
	Reason  string
}

// LockPolicy decides whether a quotation may still be revised in
// place. Approved and converted documents are permanently locked, and
// an unlocked document may only be revised on the calendar day it was
// created, compared in the operational timezone. Anything else must go
// through Duplicate.
type LockPolicy struct {
	clock shared.Clock
}

func NewLockPolicy(clock shared.Clock) LockPolicy {
	return LockPolicy{clock: clock}
}

func (p LockPolicy) CanRevise(q *Quotation) Decision {
	switch q.Status {
	case StatusApproved:
		return Decision{Reason: "approved quotations are locked; duplicate to a new number instead"}
	case StatusConverted:
		return Decision{Reason: "converted quotations are locked; duplicate to a new number instead"}
	}
	now := p.clock.Now()
	if !shared.SameCalendarDay(q.CreatedAt, now, p.clock.Location()) {
		return Decision{Reason: fmt.Sprintf(
			"quotation %s was created on %s and can no longer be revised; duplicate to a new number instead",
			q.Reference(), q.CreatedAt.In(p.clock.Location()).Format("2006-01-02"))}
	}
	return Decision{Allowed: true}
}
