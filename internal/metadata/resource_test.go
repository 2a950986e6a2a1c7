package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validResource() *Resource {
	return &Resource{
		Name:       "products",
		Table:      "products",
		PrimaryKey: PrimaryKey{Field: "id", Type: "uuid", Generated: true},
		Fields: []Field{
			{Name: "id", Type: "uuid"},
			{Name: "name", Type: "string", Required: true},
			{Name: "status", Type: "string", Enum: []string{"active", "draft"}},
			{Name: "created_at", Type: "timestamp", Auto: "create"},
			{Name: "updated_at", Type: "timestamp", Auto: "update"},
		},
		Filterable: []FilterSpec{
			{Parameter: "status", Column: "status", Operator: "eq", Values: []string{"active", "draft"}},
		},
		Searchable: []string{"name"},
		Sortable:   []string{"name"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validResource().Validate())
}

func TestValidate_CompilesExpressionRules(t *testing.T) {
	r := validResource()
	r.Rules = []Rule{
		{Type: "field", Field: "name", Operator: "min_length", Value: 2},
		{Type: "expression", Expression: `record.status == "draft"`},
	}

	require.NoError(t, r.Validate())
	assert.Nil(t, r.Rules[0].Compiled)
	assert.NotNil(t, r.Rules[1].Compiled)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Resource)
		wantMsg string
	}{
		{"missing name", func(r *Resource) { r.Name = "" }, "name and table"},
		{"missing pk", func(r *Resource) { r.PrimaryKey.Field = "" }, "primary key"},
		{"duplicate filter parameter", func(r *Resource) {
			r.Filterable = append(r.Filterable, FilterSpec{Parameter: "status", Column: "name"})
		}, "duplicate filter parameter"},
		{"filter unknown column", func(r *Resource) {
			r.Filterable = append(r.Filterable, FilterSpec{Parameter: "brand", Column: "brand"})
		}, "unknown column"},
		{"filter missing column", func(r *Resource) {
			r.Filterable = append(r.Filterable, FilterSpec{Parameter: "brand"})
		}, "parameter and column"},
		{"sortable unknown column", func(r *Resource) {
			r.Sortable = append(r.Sortable, "nope")
		}, "sortable column"},
		{"searchable unknown column", func(r *Resource) {
			r.Searchable = append(r.Searchable, "nope")
		}, "searchable column"},
		{"default sort unknown column", func(r *Resource) {
			r.DefaultSort = &SortSpec{Column: "nope", Dir: "asc"}
		}, "default sort column"},
		{"invalid rule expression", func(r *Resource) {
			r.Rules = append(r.Rules, Rule{Type: "expression", Expression: "record.price >"})
		}, "invalid rule expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResource()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestIsSortable(t *testing.T) {
	r := validResource()

	assert.True(t, r.IsSortable("name"))
	// created_at and the primary key are orderable without being declared.
	assert.True(t, r.IsSortable("created_at"))
	assert.True(t, r.IsSortable("id"))
	assert.False(t, r.IsSortable("status"))
	assert.False(t, r.IsSortable("evil_column"))
}

func TestSearchableColumns_DeclaredListWins(t *testing.T) {
	r := validResource()
	assert.Equal(t, []string{"name"}, r.SearchableColumns())
}

func TestSearchableColumns_InferredFromHints(t *testing.T) {
	r := validResource()
	r.Searchable = nil
	r.Fields = append(r.Fields,
		Field{Name: "description", Type: "text"},
		Field{Name: "brand_code", Type: "string"},
		Field{Name: "quantity", Type: "int"},
		Field{Name: "internal_ref", Type: "string"},
	)

	cols := r.SearchableColumns()
	assert.Contains(t, cols, "name")
	assert.Contains(t, cols, "description")
	assert.Contains(t, cols, "brand_code")
	assert.NotContains(t, cols, "quantity")
	assert.NotContains(t, cols, "internal_ref")
}

func TestSearchableColumns_ExcludesSensitive(t *testing.T) {
	r := validResource()
	r.Fields = append(r.Fields, Field{Name: "password_hash", Type: "string"})

	// Even an explicit declaration cannot make a password column searchable.
	r.Searchable = []string{"name", "password_hash"}
	assert.Equal(t, []string{"name"}, r.SearchableColumns())

	r.Searchable = nil
	assert.NotContains(t, r.SearchableColumns(), "password_hash")
}

func TestWritableFields(t *testing.T) {
	r := validResource()
	r.SoftDelete = true
	r.Fields = append(r.Fields, Field{Name: "deleted_at", Type: "timestamp"})

	var names []string
	for _, f := range r.WritableFields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "status"}, names)
}

func TestFilterSpecFor(t *testing.T) {
	r := validResource()

	spec := r.FilterSpecFor("status")
	require.NotNil(t, spec)
	assert.Equal(t, "status", spec.Column)

	assert.Nil(t, r.FilterSpecFor("bogus"))
}

func TestFieldHelpers(t *testing.T) {
	r := validResource()

	assert.True(t, r.HasField("name"))
	assert.False(t, r.HasField("nope"))
	assert.Equal(t, []string{"id", "name", "status", "created_at", "updated_at"}, r.FieldNames())

	f := r.GetField("created_at")
	require.NotNil(t, f)
	assert.True(t, f.IsAuto())
	assert.False(t, r.GetField("name").IsAuto())
}
