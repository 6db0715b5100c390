package roomcode

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	none := func(string) (bool, error) { return false, nil }

	for i := 0; i < 50; i++ {
		code, err := Generate(context.Background(), none)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != Length {
			t.Fatalf("code %q length = %d, want %d", code, len(code), Length)
		}
		for _, r := range code {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("code %q contains %q outside [A-Z0-9]", code, r)
			}
		}
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(string) (bool, error) {
		calls++
		return calls <= 3, nil // first three candidates collide
	}

	code, err := Generate(context.Background(), exists)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code == "" {
		t.Fatal("expected non-empty code")
	}
	if calls != 4 {
		t.Errorf("exists called %d times, want 4", calls)
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	exists := func(string) (bool, error) { return true, nil }

	if _, err := Generate(context.Background(), exists); err == nil {
		t.Fatal("expected error when every candidate collides")
	}
}

func TestGeneratePropagatesStoreError(t *testing.T) {
	boom := errors.New("db down")
	exists := func(string) (bool, error) { return false, boom }

	_, err := Generate(context.Background(), exists)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
