// Package protocol defines the contracts between the plan executor and the
// pluggable step handlers it dispatches to.
package protocol

import (
	"context"
	"log/slog"

	"github.com/planline/planline/pkg/models"
)

// Handler executes one plan step. Implementations must not mutate the
// session; recording results and log entries is the executor's job.
type Handler interface {
	Execute(ctx context.Context, params map[string]any, session *models.Session) (string, error)
}

// HandlerFactory creates handlers for one (agent type, function) dispatch key
// and publishes a JSON schema describing the parameters its handlers accept.
type HandlerFactory interface {
	AgentType() models.AgentType
	Function() string
	Description() string
	Schema() map[string]any
	Create(logger *slog.Logger) (Handler, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, params map[string]any, session *models.Session) (string, error)

func (f HandlerFunc) Execute(ctx context.Context, params map[string]any, session *models.Session) (string, error) {
	return f(ctx, params, session)
}
