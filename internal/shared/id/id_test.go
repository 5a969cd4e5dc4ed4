package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id1.Compare(id2) >= 0 {
		t.Error("IDs from one generator should sort by creation order")
	}
}

func TestGenerateString(t *testing.T) {
	id := NewGenerator().GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestTypedIDs(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{"process", NewProcessID().String(), ProcessPrefix},
		{"request", NewRequestID().String(), RequestPrefix},
		{"stream", NewStreamID().String(), StreamPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.id, tt.prefix+"_") {
				t.Errorf("ID should start with '%s_', got: %s", tt.prefix, tt.id)
			}
			parts := strings.Split(tt.id, "_")
			if len(parts) != 2 || !IsValid(parts[1]) {
				t.Errorf("ID should have format 'prefix_ulid', got: %s", tt.id)
			}
		})
	}
}

func TestParseProcessID(t *testing.T) {
	pid := NewProcessID()
	got, err := ParseProcessID(pid.String())
	if err != nil {
		t.Fatalf("ParseProcessID(%s) failed: %v", pid, err)
	}
	if got != pid {
		t.Errorf("got %s, want %s", got, pid)
	}

	for _, bad := range []string{"", "proc_", "proc_nope", "req_" + Default().GenerateString(), "42"} {
		if _, err := ParseProcessID(bad); err == nil {
			t.Errorf("ParseProcessID(%q) should fail", bad)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Timestamp(NewProcessID().String())
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("timestamp %v out of range", ts)
	}

	if _, err := Timestamp("proc_garbage"); err == nil {
		t.Error("Timestamp should reject an invalid ULID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 100

	var (
		mu   sync.Mutex
		seen = make(map[ProcessID]bool)
		wg   sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				pid := NewProcessID()
				mu.Lock()
				if seen[pid] {
					t.Errorf("duplicate id %s", pid)
				}
				seen[pid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d ids, got %d", workers*perWorker, len(seen))
	}
}
