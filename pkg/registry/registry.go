// Package registry maps (agent type, function) dispatch keys to step handler
// factories and validates step parameters against their schemas.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type dispatchKey struct {
	agentType models.AgentType
	function  string
}

func (k dispatchKey) String() string {
	return string(k.agentType) + "/" + k.function
}

type Registry struct {
	logger    *slog.Logger
	factories map[dispatchKey]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger,
		factories: make(map[dispatchKey]protocol.HandlerFactory),
	}
}

// Register adds a handler factory under its dispatch key. A later
// registration for the same key replaces the earlier one.
func (r *Registry) Register(factory protocol.HandlerFactory) {
	key := dispatchKey{agentType: factory.AgentType(), function: factory.Function()}
	r.factories[key] = factory
}

// Has reports whether a handler is registered for the dispatch key.
func (r *Registry) Has(agentType models.AgentType, function string) bool {
	_, ok := r.factories[dispatchKey{agentType: agentType, function: function}]

	return ok
}

// Dispatch looks up the handler for the key and invokes it. An unknown key is
// a descriptive error, not a panic; the executor records it as a step failure.
// Dispatch itself has no side effects on the session.
func (r *Registry) Dispatch(
	ctx context.Context,
	agentType models.AgentType,
	function string,
	params map[string]any,
	session *models.Session,
) (string, error) {
	key := dispatchKey{agentType: agentType, function: function}

	factory, ok := r.factories[key]
	if !ok {
		return "", fmt.Errorf("no handler registered for %s", key)
	}

	handler, err := factory.Create(r.logger.With("handler", key.String()))
	if err != nil {
		return "", fmt.Errorf("failed to create handler %s: %w", key, err)
	}

	return handler.Execute(ctx, params, session)
}

// ValidateParameters checks step parameters against the factory's JSON
// schema. The builder calls this for every step before a plan is accepted.
func (r *Registry) ValidateParameters(agentType models.AgentType, function string, params map[string]any) error {
	key := dispatchKey{agentType: agentType, function: function}

	factory, ok := r.factories[key]
	if !ok {
		return fmt.Errorf("no handler registered for %s", key)
	}

	schemaJSON, err := json.Marshal(factory.Schema())
	if err != nil {
		return fmt.Errorf("failed to marshal schema for %s: %w", key, err)
	}

	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("failed to validate parameters for %s: %w", key, err)
	}

	if !result.Valid() {
		return fmt.Errorf("invalid parameters for %s: %v", key, result.Errors())
	}

	return nil
}
