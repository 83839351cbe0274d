// Package review implements the brief review handler.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) AgentType() models.AgentType {
	return models.AgentReview
}

func (*Factory) Function() string {
	return models.FunctionReviewBrief
}

func (*Factory) Description() string {
	return "Checks a target's brief for completeness before content generation."
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_name":       map[string]any{"type": "string"},
			"reviewer_feedback": map[string]any{"type": "string"},
		},
		"required": []string{"target_name"},
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
		return "", fmt.Errorf("review_brief requires a target name")
	}

	h.logger.InfoContext(ctx, "Reviewing campaign brief", "target", targetName)

	briefKey := models.ContentKey("Brief", targetName)
	if _, ok := session.Campaign.GeneratedContent[briefKey]; !ok {
		return fmt.Sprintf("Review for %s: no brief on file, content steps will fall back to the campaign goal.", targetName), nil
	}

	feedback, _ := params[models.ParamReviewerFeedback].(string)
	if feedback != "" {
		return fmt.Sprintf("Review for %s: brief accepted with reviewer changes (%s).", targetName, feedback), nil
	}

	return fmt.Sprintf("Review for %s: brief accepted.", targetName), nil
}
