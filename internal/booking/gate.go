package booking

import (
	"context"
	"errors"

	"classbook/internal/gym"
)

// Decision is the outcome of a capacity check. Class and Reserved are
// filled in whenever the class exists, admitted or not.
type Decision struct {
	Admitted bool
	Reason   error
	Class    *gym.ClassSession
	Reserved int
}

// Gate answers whether a class has a free seat. It must be consulted while
// the class lock is held, otherwise the answer is stale on return.
type Gate struct {
	ledger Ledger
}

func NewGate(ledger Ledger) *Gate {
	return &Gate{ledger: ledger}
}

func (g *Gate) CanAdmit(ctx context.Context, classID string) (Decision, error) {
	class, err := g.ledger.GetClass(ctx, classID)
	if err != nil {
		if errors.Is(err, ErrClassNotFound) {
			return Decision{Reason: ErrClassNotFound}, nil
		}
		return Decision{}, err
	}

	reserved, err := g.ledger.CountReservedForClass(ctx, classID)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{Class: class, Reserved: reserved}
	if reserved >= class.Capacity {
		d.Reason = ErrFullyBooked
		return d, nil
	}

	d.Admitted = true
	return d, nil
}
