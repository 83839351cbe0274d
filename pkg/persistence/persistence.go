// Package persistence provides the storage abstraction for campaign sessions.
package persistence

import (
	"context"

	"github.com/planline/planline/pkg/models"
)

// Persistence is the durable session store. SaveSession is an idempotent
// full overwrite (last write wins) keyed by session id; ActiveSessionIDs is
// served from a maintained index, not a scan.
type Persistence interface {
	SaveSession(ctx context.Context, session *models.Session) error
	SessionByID(ctx context.Context, id string) (*models.Session, error)
	ActiveSessionIDs(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
