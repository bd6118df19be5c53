package service_test

import (
	"testing"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func custom(id, name string) model.ObjectSchema {
	return model.ObjectSchema{ObjectTypeID: id, Name: name, Custom: true}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "warehouselocation", service.Normalize("Warehouse Location"))
	assert.Equal(t, "warehouselocation", service.Normalize("warehouse-location"))
	assert.Equal(t, "warehouselocation", service.Normalize("  WAREHOUSE_location! "))
	assert.Equal(t, "café2", service.Normalize("Café #2"))
	assert.Empty(t, service.Normalize("--"))
}

func TestEntityMatcher_AutoMatch(t *testing.T) {
	m := service.NewEntityMatcher()
	a := []model.ObjectSchema{
		custom("2-100", "Warehouse Location"),
		custom("2-101", "Vendor"),
		model.StandardSchema("contacts"),
	}
	b := []model.ObjectSchema{
		custom("2-900", "warehouse-location"),
		custom("2-901", "Supplier"),
		model.StandardSchema("contacts"),
	}

	matches := m.AutoMatch(a, b)
	require.Len(t, matches, 1)
	assert.Equal(t, model.Match{
		KeyA: "2-100", KeyB: "2-900",
		NameA: "Warehouse Location", NameB: "warehouse-location",
		Confidence: service.AutoMatchConfidence,
	}, matches[0])
}

func TestEntityMatcher_DuplicatesAreConsumedOnce(t *testing.T) {
	m := service.NewEntityMatcher()
	a := []model.ObjectSchema{custom("2-2", "Project"), custom("2-1", "project")}
	b := []model.ObjectSchema{custom("2-9", "PROJECT")}

	matches := m.AutoMatch(a, b)
	require.Len(t, matches, 1)
	assert.Equal(t, "2-1", matches[0].KeyA)
	assert.Equal(t, "2-9", matches[0].KeyB)
}

func TestEntityMatcher_IgnoresIDs(t *testing.T) {
	m := service.NewEntityMatcher()
	a := []model.ObjectSchema{custom("2-5", "Pets")}
	b := []model.ObjectSchema{custom("2-5", "Vehicles")}

	assert.Empty(t, m.AutoMatch(a, b))
}

func TestEntityMatcher_Unmatched(t *testing.T) {
	m := service.NewEntityMatcher()
	a := []model.ObjectSchema{custom("2-1", "Pets"), custom("2-2", "Vehicles")}
	b := []model.ObjectSchema{custom("2-7", "Animals"), custom("2-8", "Cars")}
	mapping := map[string]model.MappingEntry{"2-1": {KeyB: "2-7", Source: model.MappingSourceManual}}

	onlyA, onlyB := m.Unmatched(a, b, mapping)
	require.Len(t, onlyA, 1)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "2-2", onlyA[0].Key())
	assert.Equal(t, "2-8", onlyB[0].Key())
}
