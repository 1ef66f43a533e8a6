package order

import (
	"errors"
	"testing"

	domainerrors "pos-dispatch/internal/errors"
)

func newOpenOrder() *Order {
	return New("A-101", FulfillmentDelivery, 42.50, 45)
}

func code(err error) string {
	var de *domainerrors.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func TestNew_Defaults(t *testing.T) {
	o := newOpenOrder()
	if o.Status != StatusOpen {
		t.Fatalf("expected OPEN, got %s", o.Status)
	}
	if o.AssignedDriverID != nil {
		t.Fatal("expected no assigned driver")
	}
	if o.PaymentMethod != nil {
		t.Fatal("expected no payment method")
	}
	if !o.Available() {
		t.Fatal("new delivery order must be available")
	}
}

// --- Availability ---

func TestAvailable_TrueForUnassignedAvailableStatuses(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusPending, StatusReady, StatusOnTheWay} {
		o := newOpenOrder()
		o.Status = s
		if !o.Available() {
			t.Errorf("unassigned %s order should be available", s)
		}
	}
}

func TestAvailable_FalseWhenAssigned(t *testing.T) {
	o := newOpenOrder()
	if err := o.Assign("driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Available() {
		t.Fatal("assigned order must not be available")
	}
}

func TestAvailable_FalseForTerminalStatuses(t *testing.T) {
	for _, s := range []Status{StatusAssigned, StatusDelivered, StatusCompleted, StatusCancelled} {
		o := newOpenOrder()
		o.Status = s
		if o.Available() {
			t.Errorf("%s order should not be available", s)
		}
	}
}

// --- Assign ---

func TestAssign_SetsDriverAndAdvancesStatus(t *testing.T) {
	o := newOpenOrder()
	if err := o.Assign("driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.AssignedDriverID == nil || *o.AssignedDriverID != "driver-1" {
		t.Fatal("driver not recorded")
	}
	if o.Status != StatusAssigned {
		t.Fatalf("expected ASSIGNED, got %s", o.Status)
	}
}

func TestAssign_KeepsOnTheWayStatus(t *testing.T) {
	o := newOpenOrder()
	o.Status = StatusOnTheWay
	if err := o.Assign("driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusOnTheWay {
		t.Fatalf("expected ON_THE_WAY to be preserved, got %s", o.Status)
	}
}

func TestAssign_FailsWhenAlreadyAssigned(t *testing.T) {
	o := newOpenOrder()
	_ = o.Assign("driver-1")
	err := o.Assign("driver-2")
	if code(err) != domainerrors.ErrAlreadyClaimed {
		t.Fatalf("expected ALREADY_CLAIMED, got %v", err)
	}
	if *o.AssignedDriverID != "driver-1" {
		t.Fatal("losing claim must not overwrite the winner")
	}
}

// --- StartDelivery ---

func TestStartDelivery_FromEachAllowedStatus(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusPending, StatusReady, StatusAssigned} {
		o := newOpenOrder()
		o.Status = s
		if err := o.StartDelivery(); err != nil {
			t.Errorf("StartDelivery from %s: %v", s, err)
		}
		if o.Status != StatusOnTheWay {
			t.Errorf("expected ON_THE_WAY from %s, got %s", s, o.Status)
		}
	}
}

func TestStartDelivery_RejectedFromLaterStatuses(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCompleted, StatusCancelled} {
		o := newOpenOrder()
		o.Status = s
		err := o.StartDelivery()
		if code(err) != domainerrors.ErrInvalidTransition {
			t.Errorf("expected INVALID_TRANSITION from %s, got %v", s, err)
		}
		if o.Status != s {
			t.Errorf("failed transition must not mutate status (was %s, now %s)", s, o.Status)
		}
	}
}

// --- MarkDelivered ---

func TestMarkDelivered_RequiresPaymentMethod(t *testing.T) {
	o := newOpenOrder()
	o.Status = StatusOnTheWay

	err := o.MarkDelivered(nil, "driver-1")
	if code(err) != domainerrors.ErrValidation {
		t.Fatalf("expected VALIDATION error, got %v", err)
	}
	if o.Status != StatusOnTheWay {
		t.Fatal("failed delivery must leave the order untouched")
	}

	pm := PaymentCash
	if err := o.MarkDelivered(&pm, "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusDelivered {
		t.Fatalf("expected DELIVERED, got %s", o.Status)
	}
	if o.PaymentMethod == nil || *o.PaymentMethod != PaymentCash {
		t.Fatal("payment method not captured")
	}
	if o.CompletedBy == nil || *o.CompletedBy != "driver-1" {
		t.Fatal("completing identity not captured")
	}
}

func TestMarkDelivered_PrePaidNeedsNoInput(t *testing.T) {
	paid := PaymentPaid
	o := newOpenOrder()
	o.Status = StatusOnTheWay
	o.PaymentMethod = &paid

	if err := o.MarkDelivered(nil, "driver-1"); err != nil {
		t.Fatalf("pre-paid order should deliver without input: %v", err)
	}
	if *o.PaymentMethod != PaymentPaid {
		t.Fatal("pre-paid payment method must be immutable")
	}
}

func TestMarkDelivered_PrePaidIgnoresSuppliedMethod(t *testing.T) {
	paid := PaymentPaid
	cash := PaymentCash
	o := newOpenOrder()
	o.Status = StatusOnTheWay
	o.PaymentMethod = &paid

	if err := o.MarkDelivered(&cash, "driver-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *o.PaymentMethod != PaymentPaid {
		t.Fatalf("expected PAID to survive, got %s", *o.PaymentMethod)
	}
}

func TestMarkDelivered_RejectedOutsideAllowedSet(t *testing.T) {
	pm := PaymentCard
	for _, s := range []Status{StatusOpen, StatusPending, StatusReady, StatusAssigned, StatusCompleted, StatusCancelled} {
		o := newOpenOrder()
		o.Status = s
		err := o.MarkDelivered(&pm, "driver-1")
		if code(err) != domainerrors.ErrInvalidTransition {
			t.Errorf("expected INVALID_TRANSITION from %s, got %v", s, err)
		}
	}
}

// --- Complete / Cancel ---

func TestComplete_OnlyFromDelivered(t *testing.T) {
	o := newOpenOrder()
	o.Status = StatusDelivered
	if err := o.Complete(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", o.Status)
	}

	o2 := newOpenOrder()
	if code(o2.Complete()) != domainerrors.ErrInvalidTransition {
		t.Fatal("expected INVALID_TRANSITION completing an OPEN order")
	}
}

func TestCancel_FromAnyNonTerminal(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusPending, StatusReady, StatusAssigned, StatusOnTheWay, StatusDelivered} {
		o := newOpenOrder()
		o.Status = s
		if err := o.Cancel(); err != nil {
			t.Errorf("Cancel from %s: %v", s, err)
		}
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled} {
		o := newOpenOrder()
		o.Status = s
		if code(o.Cancel()) != domainerrors.ErrInvalidTransition {
			t.Errorf("expected INVALID_TRANSITION cancelling %s", s)
		}
	}
}

// --- DriverTransition ---

func TestDriverTransition_RejectsUnassignedDriver(t *testing.T) {
	o := newOpenOrder()
	_ = o.Assign("driver-1")
	err := o.DriverTransition(StatusOnTheWay, nil, "driver-2")
	if code(err) != domainerrors.ErrForbidden {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestDriverTransition_OnlyExposesDriverStatuses(t *testing.T) {
	o := newOpenOrder()
	_ = o.Assign("driver-1")
	for _, target := range []Status{StatusOpen, StatusReady, StatusAssigned, StatusCompleted, StatusCancelled} {
		err := o.DriverTransition(target, nil, "driver-1")
		if code(err) != domainerrors.ErrInvalidTransition {
			t.Errorf("expected INVALID_TRANSITION for target %s, got %v", target, err)
		}
	}
}

func TestDriverTransition_FullDeliveryFlow(t *testing.T) {
	o := newOpenOrder()
	_ = o.Assign("driver-1")

	if err := o.DriverTransition(StatusOnTheWay, nil, "driver-1"); err != nil {
		t.Fatalf("to ON_THE_WAY: %v", err)
	}
	pm := PaymentCash
	if err := o.DriverTransition(StatusDelivered, &pm, "driver-1"); err != nil {
		t.Fatalf("to DELIVERED: %v", err)
	}
	if o.Status != StatusDelivered || *o.PaymentMethod != PaymentCash {
		t.Fatal("flow did not end in DELIVERED with CASH")
	}
}
