package document

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	artifactPrefix = "enriched_chunks_"
	failedListName = "failed_files.txt"
)

// ArtifactPath returns the per-document JSON artifact path for a source
// file stem inside outputDir.
func ArtifactPath(outputDir, stem string) string {
	return filepath.Join(outputDir, artifactPrefix+stem+".json")
}

// SaveChunks writes the chunk set for one document as a JSON array of
// {content, metadata} objects. Non-ASCII characters are written as-is —
// the corpus is Spanish/English/Portuguese and the artifacts are meant to
// be human-inspectable.
func SaveChunks(outputDir, stem string, chunks []Chunk) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := ArtifactPath(outputDir, stem)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(chunks); err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	return nil
}

// LoadChunks reads one artifact back.
func LoadChunks(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", filepath.Base(path), err)
	}
	return chunks, nil
}

// ListArtifacts returns the chunk artifact paths found in outputDir.
func ListArtifacts(outputDir string) ([]string, error) {
	pattern := filepath.Join(outputDir, artifactPrefix+"*.json")
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob artifacts: %w", err)
	}
	return paths, nil
}

// ArtifactStem recovers the source file stem from an artifact path.
func ArtifactStem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimPrefix(base, artifactPrefix)
	return strings.TrimSuffix(base, ".json")
}

// FailedList records source filenames whose ingestion did not complete,
// one per line, so a later run can retry only those. Safe for concurrent
// workers.
type FailedList struct {
	mu   sync.Mutex
	path string
}

func NewFailedList(outputDir string) *FailedList {
	return &FailedList{path: filepath.Join(outputDir, failedListName)}
}

// Path returns the on-disk location of the list.
func (l *FailedList) Path() string { return l.path }

// Append records one failed filename.
func (l *FailedList) Append(filename string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open failed list: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, filename); err != nil {
		return fmt.Errorf("append failed list: %w", err)
	}
	return nil
}

// Load returns the recorded filenames, deduplicated, in first-seen order.
// A missing list file is not an error — it means nothing failed.
func (l *FailedList) Load() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open failed list: %w", err)
	}
	defer f.Close()

	seen := make(map[string]bool)
	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read failed list: %w", err)
	}
	return names, nil
}

// Clear removes the list, typically before a retry pass re-records
// whatever still fails.
func (l *FailedList) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear failed list: %w", err)
	}
	return nil
}
