package order

import (
	"regexp"
	"testing"
	"time"
)

var txPattern = regexp.MustCompile(`^SIM-[0-9A-Z]+-[0-9A-Z]{6}$`)

func TestNewTransactionIDFormat(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id, err := NewTransactionID(now)
	if err != nil {
		t.Fatalf("NewTransactionID: %v", err)
	}
	if !txPattern.MatchString(id) {
		t.Fatalf("unexpected format %q", id)
	}
	if id[:13] != "SIM-LOYW3V28-" {
		t.Fatalf("expected base36 millis prefix, got %q", id)
	}
}

func TestNewTransactionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		id, err := NewTransactionID(time.Now())
		if err != nil {
			t.Fatalf("NewTransactionID: %v", err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate transaction id %q after %d samples", id, i)
		}
		seen[id] = struct{}{}
	}
}
