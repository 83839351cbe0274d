// Package file provides file-based session persistence.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/planline/planline/pkg/models"
)

// Persistence implements the persistence.Persistence interface using the file
// system: one JSON document per session plus an index of active session ids.
type Persistence struct {
	root        string
	sessionRepo *SessionRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:        cleanRoot,
		sessionRepo: NewSessionRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. Nothing to release for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) SaveSession(ctx context.Context, session *models.Session) error {
	return fp.sessionRepo.Save(ctx, session)
}

func (fp *Persistence) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	return fp.sessionRepo.GetByID(ctx, id)
}

func (fp *Persistence) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	return fp.sessionRepo.ActiveIDs(ctx)
}
