// Package storage provides file-based persistence for agent state: the
// agent identity and the local sample history.
package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostpulse/agent/internal/domain"
)

const (
	agentIDFile = "agent_id"
	historyFile = "samples.jsonl"
)

// Store persists agent state under a single data directory. Samples are
// appended to a JSONL file, one sample per line.
type Store struct {
	dataDir string
	mu      sync.Mutex
}

// NewStore creates a Store rooted at dataDir, ensuring the directory exists.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	return &Store{dataDir: dataDir}, nil
}

// AgentID returns the persisted agent ID, generating one on first run.
func (s *Store) AgentID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dataDir, agentIDFile)
	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, parseErr := uuid.Parse(id); parseErr == nil {
			return id, nil
		}
	}

	id := uuid.New().String()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write agent id: %w", err)
	}
	return id, nil
}

// AppendSamples appends samples to the JSONL history file.
func (s *Store) AppendSamples(samples []domain.UsageSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dataDir, historyFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, sample := range samples {
		if err := enc.Encode(sample); err != nil {
			return fmt.Errorf("encode sample: %w", err)
		}
	}
	return w.Flush()
}

// LoadSamples reads the persisted history, returning samples newer than
// since (all of them for a zero time). Corrupt lines are skipped rather than
// failing the whole load.
func (s *Store) LoadSamples(since time.Time) ([]domain.UsageSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dataDir, historyFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var out []domain.UsageSample
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var sample domain.UsageSample
		if err := json.Unmarshal(scanner.Bytes(), &sample); err != nil {
			continue
		}
		if since.IsZero() || sample.Timestamp.After(since) {
			out = append(out, sample)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan history file: %w", err)
	}
	return out, nil
}
