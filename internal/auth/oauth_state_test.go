package auth

import (
	"strings"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	signer := NewStateSigner(testSecret, 10*time.Minute)

	state, err := signer.Sign("https://app.example.com/login")
	if err != nil {
		t.Fatal(err)
	}

	callback, err := signer.Verify(state)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if callback != "https://app.example.com/login" {
		t.Errorf("callback = %q", callback)
	}
}

func TestStateTamperedSignature(t *testing.T) {
	signer := NewStateSigner(testSecret, 10*time.Minute)

	state, _ := signer.Sign("")
	parts := strings.SplitN(state, ".", 2)
	tampered := parts[0] + "X." + parts[1]

	if _, err := signer.Verify(tampered); err == nil {
		t.Fatal("expected tampered state to be rejected")
	}
}

func TestStateWrongSecret(t *testing.T) {
	signer := NewStateSigner(testSecret, 10*time.Minute)
	other := NewStateSigner("another-secret-another-secret-32", 10*time.Minute)

	state, _ := signer.Sign("")

	if _, err := other.Verify(state); err == nil {
		t.Fatal("expected state signed with a different secret to be rejected")
	}
}

func TestStateExpired(t *testing.T) {
	signer := NewStateSigner(testSecret, 10*time.Minute)
	signer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	state, _ := signer.Sign("")

	signer.now = time.Now
	if _, err := signer.Verify(state); err == nil {
		t.Fatal("expected expired state to be rejected")
	}
}

func TestStateUniqueNonce(t *testing.T) {
	signer := NewStateSigner(testSecret, 10*time.Minute)

	a, _ := signer.Sign("")
	b, _ := signer.Sign("")

	if a == b {
		t.Fatal("two states must differ")
	}
}
