package model

import (
	"testing"
	"time"
)

func TestStepValid(t *testing.T) {
	for _, s := range []Step{StepChoosePizza, StepChooseCola, StepWaitingForPayment,
		StepUnconfirmedPayment, StepDone, StepDoublespend} {
		if !s.Valid() {
			t.Errorf("%s must be valid", s)
		}
	}
	for _, s := range []Step{"", "waiting", "DONE"} {
		if s.Valid() {
			t.Errorf("%q must not be valid", s)
		}
	}
}

func TestStepTerminal(t *testing.T) {
	if !StepDone.Terminal() || !StepDoublespend.Terminal() {
		t.Fatal("done and doublespend are terminal")
	}
	if StepWaitingForPayment.Terminal() || StepUnconfirmedPayment.Terminal() {
		t.Fatal("pending steps are not terminal")
	}
}

func TestSessionActive(t *testing.T) {
	now := time.Now()
	s := &Session{Step: StepWaitingForPayment}
	if !s.Active() {
		t.Fatal("waiting session is active")
	}
	s.CancelledAt = &now
	if s.Active() {
		t.Fatal("cancelled session is not active")
	}
	if (&Session{Step: StepDone}).Active() {
		t.Fatal("terminal session is not active")
	}
}
