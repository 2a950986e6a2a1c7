package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resource-backend/internal/metadata"
)

func TestEvaluateRules_FieldRules(t *testing.T) {
	res := testResource()
	res.Rules = []metadata.Rule{
		{Type: "field", Field: "price", Operator: "min", Value: 0, Message: "Price cannot be negative"},
		{Type: "field", Field: "name", Operator: "min_length", Value: 3},
		{Type: "field", Field: "name", Operator: "max_length", Value: 50},
	}

	errs := EvaluateRules(res, map[string]any{"price": -1.0, "name": "ab"}, nil, true)
	require.Len(t, errs, 2)
	assert.Equal(t, "price", errs[0].Field)
	assert.Equal(t, "min", errs[0].Rule)
	assert.Equal(t, "Price cannot be negative", errs[0].Message)
	assert.Equal(t, "min_length", errs[1].Rule)

	errs = EvaluateRules(res, map[string]any{"price": 9.99, "name": "Desk Lamp"}, nil, true)
	assert.Empty(t, errs)
}

func TestEvaluateRules_AbsentFieldPasses(t *testing.T) {
	res := testResource()
	res.Rules = []metadata.Rule{
		{Type: "field", Field: "price", Operator: "min", Value: 0},
	}

	// Missing or null values are the required check's concern, not a rule's.
	assert.Empty(t, EvaluateRules(res, map[string]any{"name": "x"}, nil, true))
	assert.Empty(t, EvaluateRules(res, map[string]any{"price": nil}, nil, true))
}

func TestEvaluateRules_PatternRule(t *testing.T) {
	res := testResource()
	res.Rules = []metadata.Rule{
		{Type: "field", Field: "name", Operator: "pattern", Value: "^[A-Z]", Message: "Name must be capitalized"},
	}

	errs := EvaluateRules(res, map[string]any{"name": "lamp"}, nil, true)
	require.Len(t, errs, 1)
	assert.Equal(t, "pattern", errs[0].Rule)

	assert.Empty(t, EvaluateRules(res, map[string]any{"name": "Lamp"}, nil, true))
}

func TestEvaluateRules_ExpressionRule(t *testing.T) {
	res := testResource()
	res.Rules = []metadata.Rule{
		{
			Type:       "expression",
			Expression: `action == "update" && record.status == "active" && old.status == "draft" && record.price == nil`,
			Message:    "Publishing requires a price",
		},
	}

	// Validate compiles expression rules; evaluation never writes back to
	// the shared descriptor.
	require.NoError(t, res.Validate())
	require.NotNil(t, res.Rules[0].Compiled)

	fields := map[string]any{"status": "active", "price": nil}
	old := map[string]any{"status": "draft"}

	errs := EvaluateRules(res, fields, old, false)
	require.Len(t, errs, 1)
	assert.Equal(t, "expression", errs[0].Rule)
	assert.Equal(t, "Publishing requires a price", errs[0].Message)

	// Same rule on create: action mismatch, no violation.
	assert.Empty(t, EvaluateRules(res, fields, old, true))
}

func TestEvaluateRules_ExpressionCompileError(t *testing.T) {
	res := testResource()
	res.Rules = []metadata.Rule{
		{Type: "expression", Expression: "record.price >"},
	}

	errs := EvaluateRules(res, map[string]any{}, nil, true)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "compile error")
	// The shared descriptor is never mutated during evaluation.
	assert.Nil(t, res.Rules[0].Compiled)
}

func TestEvaluateRules_NoRules(t *testing.T) {
	res := testResource()
	assert.Nil(t, EvaluateRules(res, map[string]any{"name": "x"}, nil, true))
}
