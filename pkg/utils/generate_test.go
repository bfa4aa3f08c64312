package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestReferenceGeneratorUnique(t *testing.T) {
	gen, err := NewReferenceGenerator(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				ref := gen.Next()
				mu.Lock()
				seen[ref] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 2000 {
		t.Fatalf("expected 2000 unique references, got %d", len(seen))
	}
	for ref := range seen {
		if !strings.HasPrefix(ref, "BK-") || ref != strings.ToUpper(ref) {
			t.Fatalf("unexpected reference format %q", ref)
		}
		break
	}
}

func TestReferenceGeneratorRejectsBadNode(t *testing.T) {
	if _, err := NewReferenceGenerator(-1); err == nil {
		t.Fatalf("expected error for negative node id")
	}
}
