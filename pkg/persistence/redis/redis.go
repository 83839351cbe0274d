// Package redis provides Redis session persistence: one JSON document per
// session plus a set of active session ids.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/persistence"
)

const (
	sessionKeyPrefix = "planline:session:"
	activeSetKey     = "planline:sessions:active"
)

// Persistence implements the session store on Redis.
type Persistence struct {
	client redis.UniversalClient
	logger *slog.Logger
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	err = client.Ping(ctx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client: client,
		logger: logger.With("module", "redis_persistence"),
	}, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// SaveSession writes the session document and keeps the active set in sync
// within one pipeline.
func (p *Persistence) SaveSession(ctx context.Context, session *models.Session) error {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	session.UpdatedAt = now

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, data, 0)

	if session.Active {
		pipe.SAdd(ctx, activeSetKey, session.ID)
	} else {
		pipe.SRem(ctx, activeSetKey, session.ID)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return persistence.NewSessionError("Save", session.ID, err)
	}

	return nil
}

func (p *Persistence) SessionByID(ctx context.Context, id string) (*models.Session, error) {
	data, err := p.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewSessionError("SessionByID", id, persistence.ErrSessionNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", id, err)
	}

	var session models.Session

	err = json.Unmarshal(data, &session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
	}

	return &session, nil
}

func (p *Persistence) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := p.client.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	sort.Strings(ids)

	return ids, nil
}

// SessionKey exposes the key layout for operational tooling.
func SessionKey(id string) string {
	return sessionKeyPrefix + strings.TrimSpace(id)
}
