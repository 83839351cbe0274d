package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
)

// SessionRepository handles session rows. The campaign, plan and log columns
// hold the structural serialization of the session; a save rewrites the whole
// row (last write wins).
type SessionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sql.DB, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Save upserts the full session document.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	session.UpdatedAt = now

	campaignJSON, err := json.Marshal(session.Campaign)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign for session %s: %w", session.ID, err)
	}

	var planJSON []byte
	if session.Plan != nil {
		planJSON, err = json.Marshal(session.Plan)
		if err != nil {
			return fmt.Errorf("failed to marshal plan for session %s: %w", session.ID, err)
		}
	}

	logJSON, err := json.Marshal(session.ExecutionLog)
	if err != nil {
		return fmt.Errorf("failed to marshal execution log for session %s: %w", session.ID, err)
	}

	query := `
		INSERT INTO sessions (id, active, campaign, plan, execution_log, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active
		  , campaign = EXCLUDED.campaign
		  , plan = EXCLUDED.plan
		  , execution_log = EXCLUDED.execution_log
		  , updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.Active,
		campaignJSON,
		planJSON,
		logJSON,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	return nil
}

// GetByID loads a session row.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT
			id
		  , active
		  , campaign
		  , plan
		  , execution_log
		  , created_at
		  , updated_at
		FROM sessions
		WHERE id = $1
	`

	row := r.db.QueryRowContext(ctx, query, id)

	session := &models.Session{}

	var (
		campaignJSON []byte
		planJSON     []byte
		logJSON      []byte
	)

	err := row.Scan(
		&session.ID,
		&session.Active,
		&campaignJSON,
		&planJSON,
		&logJSON,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewSessionError("SessionByID", id, persistence.ErrSessionNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan session %s: %w", id, err)
	}

	err = json.Unmarshal(campaignJSON, &session.Campaign)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign for session %s: %w", id, err)
	}

	if len(planJSON) > 0 {
		err = json.Unmarshal(planJSON, &session.Plan)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal plan for session %s: %w", id, err)
		}
	}

	err = json.Unmarshal(logJSON, &session.ExecutionLog)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution log for session %s: %w", id, err)
	}

	return session, nil
}

// ActiveIDs returns ids of active sessions via the partial index.
func (r *SessionRepository) ActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM sessions WHERE active ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query active sessions: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	ids := make([]string, 0)

	for rows.Next() {
		var id string

		err := rows.Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}

		ids = append(ids, id)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating active sessions: %w", err)
	}

	return ids, nil
}
