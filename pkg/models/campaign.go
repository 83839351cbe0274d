// Package models defines the core domain models for campaign plan execution.
package models

import (
	"fmt"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusDraft      CampaignStatus = "draft"       // Created, no plan executed yet
	CampaignStatusInProgress CampaignStatus = "in_progress" // At least one execution pass started
	CampaignStatusExecuted   CampaignStatus = "executed"    // Plan ran to completion
	CampaignStatusFailed     CampaignStatus = "failed"
	CampaignStatusCancelled  CampaignStatus = "cancelled"
)

// Campaign holds the request that drives plan building plus everything the
// plan produced for it. GeneratedContent is keyed "{Component}_{TargetName}",
// one entry per (component, target) pair.
type Campaign struct {
	ID               string            `json:"id"`
	Goal             string            `json:"goal"     validate:"required,min=3"`
	Audience         string            `json:"audience" validate:"required"`
	Components       []string          `json:"components" validate:"required,min=1,dive,required"`
	Status           CampaignStatus    `json:"status"`
	GeneratedContent map[string]string `json:"generated_content,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ExecutedAt       *time.Time        `json:"executed_at,omitempty"`
}

// ContentKey builds the GeneratedContent key for a component/target pair.
func ContentKey(component, targetName string) string {
	return fmt.Sprintf("%s_%s", component, targetName)
}

// RecordContent stores generated text under the component/target key.
func (c *Campaign) RecordContent(component, targetName, text string) {
	if c.GeneratedContent == nil {
		c.GeneratedContent = make(map[string]string)
	}

	c.GeneratedContent[ContentKey(component, targetName)] = text
}
