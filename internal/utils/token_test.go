package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewTokenLengthAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewToken(32)
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		if len(tok) != 64 {
			t.Fatalf("len = %d, want 64 hex chars for 32 bytes", len(tok))
		}
		if seen[tok] {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = true
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("some-raw-token")
	b := HashToken("some-raw-token")
	if a != b {
		t.Errorf("same input hashed differently: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if HashToken("another-token") == a {
		t.Error("different inputs must not collide on trivial cases")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "wrong-pass") {
		t.Error("wrong password accepted")
	}
}
