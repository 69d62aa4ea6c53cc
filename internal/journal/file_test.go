package journal

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"
)

func TestFileJournal_Record(t *testing.T) {
	dir := t.TempDir()

	j, err := NewFileJournal(dir, 0)
	if err != nil {
		t.Fatalf("NewFileJournal failed: %v", err)
	}
	defer j.Close()

	type entry struct {
		ProductID string `json:"productId"`
		Price     int64  `json:"price"`
	}

	if err := j.Record(entry{ProductID: "p1", Price: 1_050_000}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := j.Record(entry{ProductID: "p1", Price: 1_100_000}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if got := j.EntryCount(); got != 2 {
		t.Errorf("EntryCount = %d, want 2", got)
	}

	f, err := os.Open(j.CurrentPath())
	if err != nil {
		t.Fatalf("opening journal file: %v", err)
	}
	defer f.Close()

	var lines []entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshaling line: %v", err)
		}
		lines = append(lines, e)
	}

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[1].Price != 1_100_000 {
		t.Errorf("lines[1].Price = %d, want 1100000", lines[1].Price)
	}
}

func TestFileJournal_Rotation(t *testing.T) {
	dir := t.TempDir()

	j, err := NewFileJournal(dir, 1) // 1ns: rotate on every record
	if err != nil {
		t.Fatalf("NewFileJournal failed: %v", err)
	}
	defer j.Close()

	first := j.CurrentPath()
	if err := j.Record(map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if j.CurrentPath() == "" {
		t.Fatal("no current path after rotation")
	}
	if _, err := os.Stat(first); err != nil {
		t.Errorf("first journal file missing: %v", err)
	}
}

func TestNullJournal(t *testing.T) {
	j := NewNullJournal()
	if err := j.Record("anything"); err != nil {
		t.Errorf("Record = %v, want nil", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}
