package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resource-backend/internal/metadata"
)

func schemaField(t *testing.T, groups []metadata.SchemaGroup, name string) metadata.SchemaField {
	t.Helper()
	for _, g := range groups {
		for _, f := range g.Fields {
			if f.Field == name {
				return f
			}
		}
	}
	t.Fatalf("field %s not found in generated schema", name)
	return metadata.SchemaField{}
}

func TestSchemaFor_DeclaredTemplateWins(t *testing.T) {
	res := testResource()
	res.Schema = []metadata.SchemaGroup{
		{Group: "Pricing", Fields: []metadata.SchemaField{{Field: "price", Label: "Price", Type: "decimal"}}},
	}

	groups := schemaFor(res)
	require.Len(t, groups, 1)
	assert.Equal(t, "Pricing", groups[0].Group)
}

func TestSchemaFor_AutoGeneratesSingleGroup(t *testing.T) {
	res := testResource()
	groups := schemaFor(res)

	require.Len(t, groups, 1)
	assert.Equal(t, "General Information", groups[0].Group)

	// Auto-managed and generated-PK fields never appear in a form.
	for _, f := range groups[0].Fields {
		assert.NotEqual(t, "id", f.Field)
		assert.NotEqual(t, "created_at", f.Field)
		assert.NotEqual(t, "updated_at", f.Field)
	}
}

func TestGenerateSchemaField_CastInference(t *testing.T) {
	tests := []struct {
		field metadata.Field
		want  string
	}{
		{metadata.Field{Name: "active", Type: "boolean"}, "checkbox"},
		{metadata.Field{Name: "stock", Type: "int"}, "number"},
		{metadata.Field{Name: "rating", Type: "decimal"}, "decimal"},
		{metadata.Field{Name: "published_at", Type: "timestamp"}, "datetime-local"},
		{metadata.Field{Name: "born_on", Type: "date"}, "date"},
		{metadata.Field{Name: "attrs", Type: "json"}, "textarea"},
	}
	for _, tt := range tests {
		sf := generateSchemaField(tt.field)
		assert.Equal(t, tt.want, sf.Type, "field %s", tt.field.Name)
	}
}

func TestGenerateSchemaField_NameHeuristics(t *testing.T) {
	email := generateSchemaField(metadata.Field{Name: "contact_email", Type: "string"})
	assert.Equal(t, "email", email.Type)
	assert.True(t, email.Unique)
	assert.Equal(t, 255, email.MaxLength)
	assert.Equal(t, "Enter your email address", email.Placeholder)

	password := generateSchemaField(metadata.Field{Name: "password", Type: "string"})
	assert.Equal(t, "password", password.Type)
	assert.Equal(t, "Enter your password", password.Placeholder)

	phone := generateSchemaField(metadata.Field{Name: "phone_number", Type: "string"})
	assert.Equal(t, "tel", phone.Type)
	assert.NotEmpty(t, phone.Pattern)
	assert.True(t, phone.Unique)

	price := generateSchemaField(metadata.Field{Name: "unit_price", Type: "string"})
	assert.Equal(t, "decimal", price.Type)
	assert.Equal(t, 0.01, price.Step)
	require.NotNil(t, price.Min)
	assert.Equal(t, 0.0, *price.Min)
	assert.Equal(t, "$", price.Prefix)

	pct := generateSchemaField(metadata.Field{Name: "discount_percentage", Type: "string"})
	assert.Equal(t, "percentage", pct.Type)
	require.NotNil(t, pct.Min)
	require.NotNil(t, pct.Max)
	assert.Equal(t, 0.0, *pct.Min)
	assert.Equal(t, 100.0, *pct.Max)

	weight := generateSchemaField(metadata.Field{Name: "weight", Type: "string"})
	assert.Equal(t, "kg", weight.Suffix)

	height := generateSchemaField(metadata.Field{Name: "height", Type: "string"})
	assert.Equal(t, "cm", height.Suffix)

	notes := generateSchemaField(metadata.Field{Name: "shipping_notes", Type: "string"})
	assert.Equal(t, "textarea", notes.Type)

	avatar := generateSchemaField(metadata.Field{Name: "avatar", Type: "string"})
	assert.Equal(t, "file", avatar.Type)

	plain := generateSchemaField(metadata.Field{Name: "sku", Type: "string"})
	assert.Equal(t, "text", plain.Type)
	assert.Equal(t, "Enter Sku", plain.Placeholder)
}

func TestGenerateSchemaField_EnumBecomesSelect(t *testing.T) {
	sf := generateSchemaField(metadata.Field{Name: "status", Type: "string", Enum: []string{"active", "draft"}})
	assert.Equal(t, "select", sf.Type)
	assert.Equal(t, []string{"active", "draft"}, sf.Options)
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "Product Name", labelFor("product_name"))
	assert.Equal(t, "Unit Price", labelFor("unit-price"))
	assert.Equal(t, "Sku", labelFor("sku"))
}

func TestColumnsFor(t *testing.T) {
	res := testResource()

	cols := columnsFor(res)
	require.Len(t, cols, 1)
	assert.Equal(t, "id", cols[0].Field)
	assert.Equal(t, "ID", cols[0].Label)
	assert.True(t, cols[0].Sortable)
	assert.True(t, cols[0].Clickable)
	assert.False(t, cols[0].Search)
	assert.Equal(t, "text", cols[0].Format)
	assert.Equal(t, "left", cols[0].Align)

	res.Columns = []metadata.Column{{Field: "name", Label: "Name"}}
	cols = columnsFor(res)
	require.Len(t, cols, 1)
	assert.Equal(t, "name", cols[0].Field)
}
