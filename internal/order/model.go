package order

import (
	"time"

	"github.com/google/uuid"

	domainerrors "pos-dispatch/internal/errors"
)

// availableStatuses are the states in which an unassigned order may still
// be claimed by a driver.
var availableStatuses = map[Status]bool{
	StatusOpen:     true,
	StatusPending:  true,
	StatusReady:    true,
	StatusOnTheWay: true,
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func New(number string, fulfillment Fulfillment, total float64, promisedMinutes int) *Order {
	now := time.Now()
	return &Order{
		ID:              uuid.New(),
		Number:          number,
		Status:          StatusOpen,
		Fulfillment:     fulfillment,
		TotalAmount:     total,
		PromisedMinutes: promisedMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Available reports whether any driver may still claim this order.
func (o *Order) Available() bool {
	return o.AssignedDriverID == nil && availableStatuses[o.Status]
}

func (o *Order) IsPrePaid() bool {
	return o.PaymentMethod != nil && *o.PaymentMethod == PaymentPaid
}

// Assign sets the claiming driver and advances the order out of the
// available set. The repository applies the same precondition as a
// conditional write; this method is the in-memory mirror of that rule.
func (o *Order) Assign(driverID string) error {
	if !o.Available() {
		return domainerrors.OrderAlreadyClaimed(o.ID.String())
	}
	o.AssignedDriverID = &driverID
	if o.Status == StatusOpen || o.Status == StatusPending || o.Status == StatusReady {
		o.Status = StatusAssigned
	}
	o.UpdatedAt = time.Now()
	return nil
}

// StartDelivery moves the order to ON_THE_WAY. This is the only forward
// transition a driver may take from the not-yet-picked-up states.
func (o *Order) StartDelivery() error {
	switch o.Status {
	case StatusOpen, StatusPending, StatusReady, StatusAssigned:
		o.Status = StatusOnTheWay
		o.UpdatedAt = time.Now()
		return nil
	default:
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusOnTheWay))
	}
}

// MarkDelivered completes the driver leg. A payment method must be captured
// unless the order was pre-paid online, in which case the stored method is
// immutable and no input is needed.
func (o *Order) MarkDelivered(pm *PaymentMethod, completedBy string) error {
	if o.Status != StatusOnTheWay && o.Status != StatusDelivered {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusDelivered))
	}
	// Supplied payment method is ignored for pre-paid orders.
	if !o.IsPrePaid() {
		if pm == nil || *pm == "" {
			return domainerrors.PaymentMethodRequired()
		}
		o.PaymentMethod = pm
	}
	o.Status = StatusDelivered
	o.CompletedBy = &completedBy
	o.UpdatedAt = time.Now()
	return nil
}

// Complete is the staff-side terminal transition for a delivered order.
func (o *Order) Complete() error {
	if o.Status != StatusDelivered {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusCompleted))
	}
	o.Status = StatusCompleted
	o.UpdatedAt = time.Now()
	return nil
}

// Cancel is a staff action reachable from any non-terminal state.
func (o *Order) Cancel() error {
	if o.Status.IsTerminal() {
		return domainerrors.OrderInvalidTransition(string(o.Status), string(StatusCancelled))
	}
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
	return nil
}

// DriverTransition validates and applies a driver-requested status change.
// Only ON_THE_WAY and DELIVERED are exposed to drivers.
func (o *Order) DriverTransition(target Status, pm *PaymentMethod, driverID string) error {
	if o.AssignedDriverID == nil || *o.AssignedDriverID != driverID {
		return domainerrors.OrderNotAssignedToDriver()
	}
	switch target {
	case StatusOnTheWay:
		return o.StartDelivery()
	case StatusDelivered:
		return o.MarkDelivered(pm, driverID)
	default:
		return domainerrors.OrderInvalidTransition(string(o.Status), string(target))
	}
}
