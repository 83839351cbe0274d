package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planline/planline/pkg/models"
)

func TestCatalog_ResolvePreservesOrder(t *testing.T) {
	catalog := NewDefaultCatalog()

	profiles, err := catalog.Resolve([]string{"RetailMax", "TechCorp"})

	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "RetailMax", profiles[0].Name)
	assert.Equal(t, "TechCorp", profiles[1].Name)
}

func TestCatalog_ResolveUnknownTarget(t *testing.T) {
	catalog := NewDefaultCatalog()

	_, err := catalog.Resolve([]string{"TechCorp", "NoSuchCo"})

	require.ErrorIs(t, err, ErrTargetNotFound)
	assert.Contains(t, err.Error(), "NoSuchCo")
}

func TestCatalog_AllSortedByName(t *testing.T) {
	catalog := NewCatalog()
	catalog.Add(models.TargetProfile{Name: "Zeta", Industry: "Retail"})
	catalog.Add(models.TargetProfile{Name: "Alpha", Industry: "Technology"})

	all := catalog.All()

	require.Len(t, all, 2)
	assert.Equal(t, "Alpha", all[0].Name)
	assert.Equal(t, "Zeta", all[1].Name)
}

func TestCatalog_AddReplacesByName(t *testing.T) {
	catalog := NewCatalog()
	catalog.Add(models.TargetProfile{Name: "TechCorp", Industry: "Technology", Employees: 100})
	catalog.Add(models.TargetProfile{Name: "TechCorp", Industry: "Technology", Employees: 5200})

	profile, err := catalog.Get("TechCorp")

	require.NoError(t, err)
	assert.Equal(t, 5200, profile.Employees)
}

func TestCatalog_DefaultProfilesAreComplete(t *testing.T) {
	for _, profile := range NewDefaultCatalog().All() {
		assert.NotEmpty(t, profile.Name)
		assert.NotEmpty(t, profile.Industry)
		assert.Positive(t, profile.Employees)
	}
}
