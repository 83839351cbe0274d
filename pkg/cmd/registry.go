// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/planline/planline/pkg/handlers/brief"
	"github.com/planline/planline/pkg/handlers/content"
	"github.com/planline/planline/pkg/handlers/deploy"
	"github.com/planline/planline/pkg/handlers/research"
	"github.com/planline/planline/pkg/handlers/review"
	"github.com/planline/planline/pkg/registry"
)

// NewRegistry builds the handler registry with every native agent handler
// registered.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(research.NewFactory())
	reg.Register(brief.NewFactory())
	reg.Register(review.NewFactory())
	reg.Register(content.NewFactory())
	reg.Register(deploy.NewFactory())
	reg.Register(deploy.NewCoordinateFactory())

	return reg
}
