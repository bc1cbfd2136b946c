package chat

import (
	"strings"
	"testing"
)

func TestNewTempIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 10000; i++ {
		id := NewTempID()
		if !strings.HasPrefix(id, "tmp-") {
			t.Fatalf("temp id should be recognizable, got %q", id)
		}
		if _, ok := seen[id]; ok {
			t.Fatalf("duplicate temp id %q after %d allocations", id, i)
		}
		seen[id] = struct{}{}
	}
}
