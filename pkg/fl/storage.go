package fl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// CheckpointStore persists model versions and session records as CBOR
// files under a data directory. Writes go through a temp file and rename
// so readers never observe a partial checkpoint.
type CheckpointStore struct {
	modelsDir   string
	sessionsDir string
	mu          sync.RWMutex
}

func NewCheckpointStore(dataDir string) (*CheckpointStore, error) {
	modelsDir := filepath.Join(dataDir, "models")
	sessionsDir := filepath.Join(dataDir, "sessions")
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create models directory: %w", err)
	}
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &CheckpointStore{
		modelsDir:   modelsDir,
		sessionsDir: sessionsDir,
	}, nil
}

func (cs *CheckpointStore) SaveModel(version int, params ParameterSet) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := params.Validate(); err != nil {
		return fmt.Errorf("refusing to checkpoint invalid model: %w", err)
	}

	file := filepath.Join(cs.modelsDir, fmt.Sprintf("model_v%d.cbor", version))

	return writeCBOR(file, params)
}

func (cs *CheckpointStore) LoadModel(version int) (ParameterSet, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	file := filepath.Join(cs.modelsDir, fmt.Sprintf("model_v%d.cbor", version))
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var params ParameterSet
	if err := cbor.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}

	return params, nil
}

func (cs *CheckpointStore) ListModels() ([]int, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entries, err := os.ReadDir(cs.modelsDir)
	if err != nil {
		return nil, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "model_v%d.cbor", &version); err == nil {
			versions = append(versions, version)
		}
	}

	return versions, nil
}

func (cs *CheckpointStore) SaveSession(sessionID string, record any) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	sanitized := sanitizeID(sessionID)
	if sanitized == "" {
		return fmt.Errorf("invalid session ID: %s", sessionID)
	}

	file := filepath.Join(cs.sessionsDir, fmt.Sprintf("session_%s.cbor", sanitized))

	return writeCBOR(file, record)
}

func (cs *CheckpointStore) LoadSession(sessionID string, record any) error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	sanitized := sanitizeID(sessionID)
	if sanitized == "" {
		return fmt.Errorf("invalid session ID: %s", sessionID)
	}

	file := filepath.Join(cs.sessionsDir, fmt.Sprintf("session_%s.cbor", sanitized))
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	if err := cbor.Unmarshal(data, record); err != nil {
		return fmt.Errorf("failed to decode session record: %w", err)
	}

	return nil
}

func writeCBOR(file string, v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	return os.Rename(tmp, file)
}

// sanitizeID strips path separators, traversal sequences and control
// characters so an ID is safe to embed in a filename.
func sanitizeID(id string) string {
	var cleaned strings.Builder
	for _, r := range id {
		if r < 32 || r == 127 {
			continue
		}
		cleaned.WriteRune(r)
	}

	result := strings.ReplaceAll(cleaned.String(), "..", "")
	result = strings.ReplaceAll(result, "/", "")
	result = strings.ReplaceAll(result, "\\", "")
	result = strings.TrimSpace(result)

	var final strings.Builder
	for _, r := range result {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			final.WriteRune(r)
		}
	}

	return final.String()
}
