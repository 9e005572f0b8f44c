package debounce

import (
	"testing"
	"time"
)

func TestAllowSuppressesRepeats(t *testing.T) {
	f := New(2 * time.Second)
	now := time.Unix(1000, 0)
	f.now = func() time.Time { return now }

	if !f.Allow("proj-1:run") {
		t.Fatal("first call should pass")
	}
	if f.Allow("proj-1:run") {
		t.Fatal("immediate repeat should be suppressed")
	}

	// A different key is independent
	if !f.Allow("proj-2:run") {
		t.Fatal("distinct key should pass")
	}

	// After the window the key passes again
	now = now.Add(2 * time.Second)
	if !f.Allow("proj-1:run") {
		t.Fatal("call after window should pass")
	}
}

func TestAllowConcurrent(t *testing.T) {
	f := New(time.Minute)

	results := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		go func() { results <- f.Allow("same-key") }()
	}

	passed := 0
	for i := 0; i < 16; i++ {
		if <-results {
			passed++
		}
	}
	if passed != 1 {
		t.Fatalf("exactly one concurrent caller should pass, got %d", passed)
	}
}
