package service_test

import (
	"errors"
	"testing"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() model.ComparisonResult {
	r := model.ComparisonResult{
		Kind: model.ResultKindObjectType,
		Entries: []model.DiffEntry{
			{FieldPath: "color.label", Status: model.StatusIdentical, ValueA: "Color", ValueB: "Color"},
			{FieldPath: "color.options.red", Status: model.StatusDifferent, ValueA: "Red", ValueB: "Crimson"},
			{FieldPath: "color.required", Status: model.StatusDifferent, ValueA: true, ValueB: false},
			{FieldPath: "sku", Status: model.StatusOnlyInA, ValueA: model.PropertyDefinition{Name: "sku"}},
		},
		Items: []model.ItemSummary{
			{Name: "color", Path: "color", Status: model.StatusDifferent},
			{Name: "sku", Path: "sku", Status: model.StatusOnlyInA},
		},
	}
	r.Summarize()
	return r
}

func TestResultFilter_ZeroOptionsKeepsEverything(t *testing.T) {
	f, err := service.NewResultFilter()
	require.NoError(t, err)

	in := sampleResult()
	out, err := f.Apply(in, service.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestResultFilter_HideIdenticalAndStatuses(t *testing.T) {
	f, err := service.NewResultFilter()
	require.NoError(t, err)

	out, err := f.Apply(sampleResult(), service.FilterOptions{HideIdentical: true})
	require.NoError(t, err)
	assert.Len(t, out.Entries, 3)
	assert.Zero(t, out.Counts.Identical)

	out, err = f.Apply(sampleResult(), service.FilterOptions{Statuses: []model.DiffStatus{model.StatusOnlyInA}})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "sku", out.Entries[0].FieldPath)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "sku", out.Items[0].Name)
	assert.Equal(t, model.StatusDifferent, out.Status)
}

func TestResultFilter_Expression(t *testing.T) {
	f, err := service.NewResultFilter()
	require.NoError(t, err)

	out, err := f.Apply(sampleResult(), service.FilterOptions{
		Expression: `status == "different" && field_path.contains(".options.")`,
	})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "color.options.red", out.Entries[0].FieldPath)

	out, err = f.Apply(sampleResult(), service.FilterOptions{Expression: `value_a == "true"`})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, "color.required", out.Entries[0].FieldPath)

	out, err = f.Apply(sampleResult(), service.FilterOptions{Expression: `value_a.contains("\"name\":\"sku\"")`})
	require.NoError(t, err)
	require.Len(t, out.Entries, 1)
}

func TestResultFilter_InvalidExpression(t *testing.T) {
	f, err := service.NewResultFilter()
	require.NoError(t, err)

	_, err = f.Apply(sampleResult(), service.FilterOptions{Expression: `status ==`})
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))

	_, err = f.Apply(sampleResult(), service.FilterOptions{Expression: `field_path`})
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))

	_, err = f.Apply(sampleResult(), service.FilterOptions{Expression: `unknown_var == 1`})
	assert.True(t, errors.Is(err, model.ErrInvalidFilter))
}

func TestResultFilter_CachesPrograms(t *testing.T) {
	f, err := service.NewResultFilter()
	require.NoError(t, err)

	p1, err := f.Compile(`status == "identical"`)
	require.NoError(t, err)
	p2, err := f.Compile(`status == "identical"`)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestRenderValue(t *testing.T) {
	assert.Equal(t, "", service.RenderValue(nil))
	assert.Equal(t, "x", service.RenderValue("x"))
	assert.Equal(t, "false", service.RenderValue(false))
	assert.Equal(t, `{"a":1}`, service.RenderValue(map[string]int{"a": 1}))
}

func TestTextDetail(t *testing.T) {
	assert.Empty(t, service.TextDetail("a", "b"))
	assert.Empty(t, service.TextDetail("a\nb", "a\nb"))
	d := service.TextDetail("a\nb\n", "a\nc\n")
	assert.Contains(t, d, "--- portal_a")
	assert.Contains(t, d, "+++ portal_b")
	assert.Contains(t, d, "+c")
}
