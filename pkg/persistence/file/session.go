package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
)

const activeIndexFile = "active.json"

// SessionRepository handles session file operations. Saves rewrite the whole
// session document; the active-id index is kept in a sidecar file so listing
// active sessions never scans every record.
type SessionRepository struct {
	root string
	mu   sync.Mutex // guards index read-modify-write
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(root string) *SessionRepository {
	return &SessionRepository{root: root}
}

// GetByID retrieves a session by its id.
func (sr *SessionRepository) GetByID(_ context.Context, sessionID string) (*models.Session, error) {
	filePath := filepath.Clean(path.Join(sr.root, "sessions", sessionID+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewSessionError("SessionByID", sessionID, persistence.ErrSessionNotFound)
		}

		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	var session models.Session

	err = json.Unmarshal(body, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}

	return &session, nil
}

// Save writes the full session document and refreshes the active index.
func (sr *SessionRepository) Save(_ context.Context, session *models.Session) error {
	err := os.MkdirAll(path.Join(sr.root, "sessions"), 0750)
	if err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	session.UpdatedAt = now

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	filePath := path.Join(sr.root, "sessions", session.ID+".json")

	err = os.WriteFile(filePath, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write session %s: %w", session.ID, err)
	}

	return sr.updateIndex(session.ID, session.Active)
}

// ActiveIDs returns the active session ids from the index file.
func (sr *SessionRepository) ActiveIDs(_ context.Context) ([]string, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	return sr.readIndex()
}

func (sr *SessionRepository) updateIndex(sessionID string, active bool) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	ids, err := sr.readIndex()
	if err != nil {
		return err
	}

	filtered := make([]string, 0, len(ids)+1)

	for _, id := range ids {
		if id != sessionID {
			filtered = append(filtered, id)
		}
	}

	if active {
		filtered = append(filtered, sessionID)
	}

	sort.Strings(filtered)

	data, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal active index: %w", err)
	}

	return os.WriteFile(path.Join(sr.root, "sessions", activeIndexFile), data, 0600)
}

func (sr *SessionRepository) readIndex() ([]string, error) {
	body, err := os.ReadFile(path.Join(sr.root, "sessions", activeIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}

		return nil, fmt.Errorf("failed to read active index: %w", err)
	}

	var ids []string

	err = json.Unmarshal(body, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal active index: %w", err)
	}

	return ids, nil
}
