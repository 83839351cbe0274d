// Package brief implements the per-target campaign brief handler.
package brief

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
	return models.AgentContent
}

func (*Factory) Function() string {
	return models.FunctionGenerateBrief
}

func (*Factory) Description() string {
	return "Drafts the campaign brief for one target company."
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_name": map[string]any{"type": "string"},
			"industry":    map[string]any{"type": "string"},
			"goal":        map[string]any{"type": "string"},
			"audience":    map[string]any{"type": "string"},
			"reviewer_feedback": map[string]any{
				"type":        "string",
				"description": "Set when a reviewer approved the brief with changes",
			},
		},
		"required": []string{"target_name", "goal"},
	}
}

func (*Factory) Create(logger *slog.Logger) (protocol.Handler, error) {
	return &Handler{logger: logger}, nil
}

type Handler struct {
	logger *slog.Logger
}

func (h *Handler) Execute(ctx context.Context, params map[string]any, _ *models.Session) (string, error) {
	targetName, _ := params[models.ParamTargetName].(string)
	if targetName == "" {
		return "", fmt.Errorf("generate_brief requires a target name")
	}

	goal, _ := params[models.ParamGoal].(string)
	audience, _ := params[models.ParamAudience].(string)
	industry, _ := params[models.ParamIndustry].(string)
	feedback, _ := params[models.ParamReviewerFeedback].(string)

	h.logger.InfoContext(ctx, "Drafting campaign brief", "target", targetName)

	var b strings.Builder

	fmt.Fprintf(&b, "Campaign brief for %s (%s)\n", targetName, industry)
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Audience: %s\n", audience)
	fmt.Fprintf(&b, "Angle: position the offering against %s-specific pain points.\n", industry)

	if feedback != "" {
		fmt.Fprintf(&b, "Reviewer notes incorporated: %s\n", feedback)
	}

	return b.String(), nil
}
