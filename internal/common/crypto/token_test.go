package crypto

import (
	"encoding/hex"
	"testing"
)

func TestGenerateRefreshToken(t *testing.T) {
	a, err := GenerateRefreshToken()
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 128 {
		t.Errorf("expected 128 hex characters, got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("token is not valid hex: %v", err)
	}

	b, _ := GenerateRefreshToken()
	if a == b {
		t.Error("two generated tokens must differ")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("hash must be deterministic")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs must not collide trivially")
	}
	if len(HashToken("abc")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashToken("abc")))
	}
}
