package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileJournal writes entries to JSONL files with time-based rotation.
type FileJournal struct {
	outputDir        string
	rotationInterval time.Duration

	mu           sync.Mutex
	currentFile  *os.File
	currentPath  string
	lastRotation time.Time
	entryCount   int64
}

// NewFileJournal creates a file journal under outputDir. A non-positive
// rotation interval disables rotation.
func NewFileJournal(outputDir string, rotationInterval time.Duration) (*FileJournal, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	j := &FileJournal{
		outputDir:        outputDir,
		rotationInterval: rotationInterval,
	}

	if err := j.rotate(); err != nil {
		return nil, err
	}

	return j, nil
}

// Record appends one entry to the current file.
func (j *FileJournal) Record(entry any) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.rotationInterval > 0 && time.Since(j.lastRotation) > j.rotationInterval {
		if err := j.rotate(); err != nil {
			return err
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling journal entry: %w", err)
	}

	if _, err := j.currentFile.Write(data); err != nil {
		return fmt.Errorf("writing journal entry: %w", err)
	}
	if _, err := j.currentFile.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	j.entryCount++
	return nil
}

// Close closes the current file.
func (j *FileJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.currentFile != nil {
		return j.currentFile.Close()
	}
	return nil
}

// rotate creates a new output file.
func (j *FileJournal) rotate() error {
	if j.currentFile != nil {
		j.currentFile.Close()
	}

	filename := fmt.Sprintf("events_%s.jsonl", time.Now().UTC().Format("2006-01-02_15-04-05"))
	path := filepath.Join(j.outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating journal file: %w", err)
	}

	j.currentFile = f
	j.currentPath = path
	j.lastRotation = time.Now()
	j.entryCount = 0

	return nil
}

// CurrentPath returns the path of the current journal file.
func (j *FileJournal) CurrentPath() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.currentPath
}

// EntryCount returns the number of entries written to the current file.
func (j *FileJournal) EntryCount() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.entryCount
}
