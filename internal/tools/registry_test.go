package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(Tool{Fn: func(ctx context.Context, p map[string]any) (any, error) { return nil, nil }}))
	assert.Error(t, r.Register(Tool{Name: "no_fn"}))
}

func TestExecuteTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name: "echo",
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			return params["value"], nil
		},
	}))
	require.NoError(t, r.Register(Tool{
		Name: "explode",
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			panic("kaboom")
		},
	}))

	tests := []struct {
		name        string
		tool        string
		wantSuccess bool
		wantData    any
		wantErr     string
	}{
		{"success", "echo", true, "hi", ""},
		{"unknown", "missing", false, nil, "tool not found: missing"},
		{"panic", "explode", false, nil, "tool panicked: kaboom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.ExecuteTool(context.Background(), tt.tool, map[string]any{"value": "hi"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantData, res.Data)
			assert.Equal(t, tt.wantErr, res.Error)
		})
	}
}

func TestDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterSampleTools(r))

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "inventory_status", defs[0].Name)
	assert.Equal(t, "sales_report", defs[1].Name)
	assert.Equal(t, "seo_audit", defs[2].Name)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(defs[2].Parameters, &schema))
	assert.Equal(t, "object", schema["type"])
}

func TestSampleTools(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterSampleTools(r))
	ctx := context.Background()

	res, err := r.ExecuteTool(ctx, "sales_report", nil)
	require.NoError(t, err)
	require.True(t, res.Success)
	report := res.Data.(map[string]any)
	assert.Equal(t, "MUG-1001", report["top_product"])
	assert.Equal(t, 459, report["units_sold"])

	res, err = r.ExecuteTool(ctx, "inventory_status", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEE-2040", "BAG-3300"}, res.Data.(map[string]any)["needs_restock"])

	res, err = r.ExecuteTool(ctx, "inventory_status", map[string]any{"product_id": "cap-0710"})
	require.NoError(t, err)
	assert.Equal(t, false, res.Data.(map[string]any)["needs_restock"])

	res, err = r.ExecuteTool(ctx, "seo_audit", map[string]any{"product_id": "BAG-3300"})
	require.NoError(t, err)
	audit := res.Data.(map[string]any)
	assert.Equal(t, 50, audit["score"])

	res, err = r.ExecuteTool(ctx, "seo_audit", map[string]any{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown product")
}
