// Package postgresql provides PostgreSQL session persistence.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the postgres driver.
	_ "github.com/lib/pq"
	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence/sqlbase"
)

// Persistence implements the session store on PostgreSQL.
type Persistence struct {
	db          *sql.DB
	logger      *slog.Logger
	sessionRepo *SessionRepository
}

// NewPersistence connects, runs migrations and returns the store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:          database,
		logger:      logger,
		sessionRepo: NewSessionRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) SaveSession(ctx context.Context, session *models.Session) error {
	return p.sessionRepo.Save(ctx, session)
}

func (p *Persistence) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	return p.sessionRepo.GetByID(ctx, id)
}

func (p *Persistence) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	return p.sessionRepo.ActiveIDs(ctx)
}
