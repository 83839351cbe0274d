// Package research implements the industry insights step handler.
package research

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
	return models.AgentResearch
}

func (*Factory) Function() string {
	return models.FunctionIndustryInsights
}

func (*Factory) Description() string {
	return "Summarizes industry trends for the campaign's resolved targets."
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"goal": map[string]any{
				"type":        "string",
				"description": "Campaign goal the research should support",
			},
			"audience": map[string]any{
				"type":        "string",
				"description": "Audience description",
			},
			"industries": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Industries covered by the resolved targets",
			},
		},
		"required": []string{"goal", "industries"},
	}
}

func (*Factory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return &Handler{logger: logger}, nil
}

type Handler struct {
	logger *slog.Logger
}

func (h *Handler) Execute(ctx context.Context, params map[string]any, _ *models.Session) (string, error) {
	goal, _ := params[models.ParamGoal].(string)

	industries := make([]string, 0)

	if raw, ok := params["industries"].([]any); ok {
		for _, item := range raw {
			if industry, ok := item.(string); ok {
				industries = append(industries, industry)
			}
		}
	} else if typed, ok := params["industries"].([]string); ok {
		industries = typed
	}

	if len(industries) == 0 {
		return "", fmt.Errorf("industry insights require at least one industry")
	}

	h.logger.InfoContext(ctx, "Compiling industry insights", "industries", industries)

	var b strings.Builder

	fmt.Fprintf(&b, "Industry insights for goal %q:\n", goal)

	for _, industry := range industries {
		fmt.Fprintf(&b, "- %s: buyers prioritize measurable ROI and short onboarding cycles.\n", industry)
	}

	return b.String(), nil
}
