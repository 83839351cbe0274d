// Package deploy implements the per-target deployment handler and the final
// launch coordination handler.
package deploy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) AgentType() models.AgentType {
	return models.AgentDeploy
}

func (*Factory) Function() string {
	return models.FunctionDeployToTarget
}

func (*Factory) Description() string {
	return "Stages the generated components for delivery to one target."
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_name": map[string]any{"type": "string"},
			"components": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"target_name", "components"},
	}
}

func (*Factory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return &Handler{logger: logger}, nil
}

type Handler struct {
	logger *slog.Logger
}

func (h *Handler) Execute(ctx context.Context, params map[string]any, session *models.Session) (string, error) {
	targetName, _ := params[models.ParamTargetName].(string)
	if targetName == "" {
		return "", fmt.Errorf("deploy_to_target requires a target name")
	}

	components := stringSlice(params["components"])

	staged := make([]string, 0, len(components))
	missing := make([]string, 0)

	for _, component := range components {
		key := models.ContentKey(component, targetName)
		if _, ok := session.Campaign.GeneratedContent[key]; ok {
			staged = append(staged, component)
		} else {
			missing = append(missing, component)
		}
	}

	h.logger.InfoContext(ctx, "Staging deployment",
		"target", targetName,
		"staged", staged,
		"missing", missing,
	)

	if len(missing) > 0 {
		return fmt.Sprintf(
			"Deployment for %s staged %d/%d components; missing: %s",
			targetName, len(staged), len(components), strings.Join(missing, ", "),
		), nil
	}

	return fmt.Sprintf("Deployment for %s staged all %d components.", targetName, len(staged)), nil
}

// CoordinateFactory builds the trailing launch coordination handler.
type CoordinateFactory struct{}

func NewCoordinateFactory() *CoordinateFactory {
	return &CoordinateFactory{}
}

func (*CoordinateFactory) AgentType() models.AgentType {
	return models.AgentDeploy
}

func (*CoordinateFactory) Function() string {
	return models.FunctionCoordinateLaunch
}

func (*CoordinateFactory) Description() string {
	return "Summarizes the per-target deployments into a launch report."
}

func (*CoordinateFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_names": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"total_targets": map[string]any{"type": "integer"},
		},
		"required": []string{"target_names"},
	}
}

func (*CoordinateFactory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return &CoordinateHandler{logger: logger}, nil
}

type CoordinateHandler struct {
	logger *slog.Logger
}

func (h *CoordinateHandler) Execute(ctx context.Context, params map[string]any, session *models.Session) (string, error) {
	targets := stringSlice(params["target_names"])
	if len(targets) == 0 {
		return "", fmt.Errorf("coordinate_launch requires at least one target")
	}

	h.logger.InfoContext(ctx, "Coordinating final launch", "targets", len(targets))

	var b strings.Builder

	fmt.Fprintf(&b, "Launch coordinated across %d targets:\n", len(targets))

	for _, target := range targets {
		pieces := 0

		for key := range session.Campaign.GeneratedContent {
			if strings.HasSuffix(key, "_"+target) {
				pieces++
			}
		}

		fmt.Fprintf(&b, "- %s: %d content pieces ready\n", target, pieces)
	}

	return b.String(), nil
}

// stringSlice handles both native and JSON-decoded slices; step parameters
// round-trip through storage as []any.
func stringSlice(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
