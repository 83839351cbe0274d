// Package content implements the per-component content generation handler.
package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/planline/planline/pkg/models"
	"github.com/planline/planline/pkg/protocol"
)

// Components the generator knows how to produce.
const (
	ComponentEmail       = "email"
	ComponentLandingPage = "landing_page"
	ComponentAdCopy      = "ad_copy"
)

// SupportedComponents lists component names accepted by the plan builder, in
// display order.
func SupportedComponents() []string {
	return []string{ComponentEmail, ComponentLandingPage, ComponentAdCopy}
}

// Supported reports whether the generator can produce the component.
func Supported(component string) bool {
	switch component {
	case ComponentEmail, ComponentLandingPage, ComponentAdCopy:
		return true
	default:
		return false
	}
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) AgentType() models.AgentType {
	return models.AgentContent
}

func (*Factory) Function() string {
	return models.FunctionGenerateContent
}

func (*Factory) Description() string {
	return "Generates one content component for one target company."
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"target_name": map[string]any{"type": "string"},
			"industry":    map[string]any{"type": "string"},
			"component": map[string]any{
				"type": "string",
				"enum": SupportedComponents(),
			},
			"goal":              map[string]any{"type": "string"},
			"audience":          map[string]any{"type": "string"},
			"reviewer_feedback": map[string]any{"type": "string"},
		},
		"required": []string{"target_name", "component"},
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
	component, _ := params[models.ParamComponent].(string)

	if targetName == "" || component == "" {
		return "", fmt.Errorf("generate_content requires target_name and component")
	}

	if !Supported(component) {
		return "", fmt.Errorf("unsupported content component %q", component)
	}

	goal, _ := params[models.ParamGoal].(string)
	industry, _ := params[models.ParamIndustry].(string)

	brief := session.Campaign.GeneratedContent[models.ContentKey("Brief", targetName)]
	if brief == "" {
		brief = "Goal: " + goal
	}

	h.logger.InfoContext(ctx, "Generating content component",
		"target", targetName,
		"component", component,
	)

	switch component {
	case ComponentEmail:
		return fmt.Sprintf(
			"Subject: %s for %s\n\nHi %s team,\n\nWe help %s companies reach this goal: %s.\n\n%s",
			goal, targetName, targetName, industry, goal, brief,
		), nil
	case ComponentLandingPage:
		return fmt.Sprintf(
			"# %s\n\n%s tailored for %s.\n\n%s\n\n[Request a demo]",
			goal, industry, targetName, brief,
		), nil
	default:
		return fmt.Sprintf("%s: %s, built for %s teams in %s.", component, goal, targetName, industry), nil
	}
}
