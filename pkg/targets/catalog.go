// Package targets holds the catalog of deployable target companies.
package targets

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/planline/planline/pkg/models"
)

// ErrTargetNotFound indicates a requested target is not in the catalog.
var ErrTargetNotFound = errors.New("target not found in catalog")

// Catalog is an in-memory registry of target profiles. Resolution is
// deterministic: Resolve preserves the requested order, All returns profiles
// sorted by name, so the builder always sees the same ordered list for the
// same input.
type Catalog struct {
	mu       sync.RWMutex
	profiles map[string]models.TargetProfile
}

func NewCatalog() *Catalog {
	return &Catalog{
		profiles: make(map[string]models.TargetProfile),
	}
}

// NewDefaultCatalog seeds the catalog with the built-in demo accounts.
func NewDefaultCatalog() *Catalog {
	catalog := NewCatalog()

	for _, profile := range defaultProfiles() {
		catalog.Add(profile)
	}

	return catalog
}

// Add registers or replaces a profile, keyed by name.
func (c *Catalog) Add(profile models.TargetProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profiles[profile.Name] = profile
}

// Get returns a single profile by name.
func (c *Catalog) Get(name string) (models.TargetProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profile, ok := c.profiles[name]
	if !ok {
		return models.TargetProfile{}, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
	}

	return profile, nil
}

// Resolve maps the requested names to profiles, preserving request order.
// Any unknown name fails the whole resolution; the builder never receives a
// partial target list.
func (c *Catalog) Resolve(names []string) ([]models.TargetProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resolved := make([]models.TargetProfile, 0, len(names))

	for _, name := range names {
		profile, ok := c.profiles[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, name)
		}

		resolved = append(resolved, profile)
	}

	return resolved, nil
}

// All returns every profile sorted by name.
func (c *Catalog) All() []models.TargetProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profiles := make([]models.TargetProfile, 0, len(c.profiles))
	for _, profile := range c.profiles {
		profiles = append(profiles, profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})

	return profiles
}

func defaultProfiles() []models.TargetProfile {
	return []models.TargetProfile{
		{
			Name:      "TechCorp",
			Industry:  "Technology",
			Size:      "enterprise",
			Employees: 5200,
			Metrics: map[string]float64{
				"annual_revenue_musd": 890,
				"growth_rate":         0.18,
			},
		},
		{
			Name:      "FinanceHub",
			Industry:  "Financial Services",
			Size:      "mid-market",
			Employees: 1400,
			Metrics: map[string]float64{
				"annual_revenue_musd": 210,
				"growth_rate":         0.09,
			},
		},
		{
			Name:      "HealthFirst",
			Industry:  "Healthcare",
			Size:      "enterprise",
			Employees: 8800,
			Metrics: map[string]float64{
				"annual_revenue_musd": 1200,
				"growth_rate":         0.06,
			},
		},
		{
			Name:      "RetailMax",
			Industry:  "Retail",
			Size:      "mid-market",
			Employees: 2600,
			Metrics: map[string]float64{
				"annual_revenue_musd": 340,
				"growth_rate":         0.12,
			},
		},
	}
}
