package metadata

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// Resource is the capability descriptor for one data model: which fields
// exist, which of them may be filtered, searched and sorted, and how form
// schema and list columns should be rendered. Descriptors are registered once
// at startup and read-only afterwards, so they are safe to share across
// concurrent requests.
type Resource struct {
	Name        string        `json:"name"`
	Table       string        `json:"table"`
	PrimaryKey  PrimaryKey    `json:"primary_key"`
	SoftDelete  bool          `json:"soft_delete,omitempty"`
	Fields      []Field       `json:"fields"`
	Filterable  []FilterSpec  `json:"filterable,omitempty"`
	Searchable  []string      `json:"searchable,omitempty"`
	Sortable    []string      `json:"sortable,omitempty"`
	DefaultSort *SortSpec     `json:"default_sort,omitempty"`
	Schema      []SchemaGroup `json:"schema,omitempty"`
	Columns     []Column      `json:"columns,omitempty"`
	Rules       []Rule        `json:"rules,omitempty"`
}

type PrimaryKey struct {
	Field     string `json:"field"`
	Type      string `json:"type"` // uuid, int, bigint, string
	Generated bool   `json:"generated"`
}

// FilterSpec declares one filterable request parameter and the column it maps
// to. Values, when set, is an allow-list: anything outside it is dropped.
// Resolver names a custom predicate registered with the engine; when set it
// replaces the default operator clause.
type FilterSpec struct {
	Parameter string   `json:"parameter"`
	Column    string   `json:"column"`
	Operator  string   `json:"operator,omitempty"` // eq (default), neq, gt, gte, lt, lte, like
	Values    []string `json:"values,omitempty"`
	Resolver  string   `json:"resolver,omitempty"`
}

// SortSpec is the descriptor-level default ordering applied when a request
// carries no sort parameter.
type SortSpec struct {
	Column string `json:"column"`
	Dir    string `json:"dir"`
}

// SchemaGroup is one group of form fields in the schema metadata.
type SchemaGroup struct {
	Group  string        `json:"group"`
	Fields []SchemaField `json:"fields"`
}

// SchemaField describes one form input. Constraint fields are optional and
// only serialized when set.
type SchemaField struct {
	Field       string   `json:"field"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Unique      bool     `json:"unique,omitempty"`
	MaxLength   int      `json:"maxLength,omitempty"`
	MinLength   int      `json:"minLength,omitempty"`
	Pattern     string   `json:"pattern,omitempty"`
	Step        float64  `json:"step,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Prefix      string   `json:"prefix,omitempty"`
	Suffix      string   `json:"suffix,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// Column describes one column of the resource's index table.
type Column struct {
	Field     string `json:"field"`
	Label     string `json:"label"`
	Sortable  bool   `json:"sortable"`
	Clickable bool   `json:"clickable"`
	Search    bool   `json:"search"`
	Format    string `json:"format"`
	Align     string `json:"align"`
}

// Rule is a descriptor-declared validation rule evaluated on create/update.
// Field rules check one attribute with a built-in operator; expression rules
// evaluate an expr-lang expression against {record, old, action} and are
// violated when the expression returns true.
type Rule struct {
	Type       string `json:"type"` // "field" or "expression"
	Field      string `json:"field,omitempty"`
	Operator   string `json:"operator,omitempty"` // min, max, min_length, max_length, pattern
	Value      any    `json:"value,omitempty"`
	Expression string `json:"expression,omitempty"`
	Message    string `json:"message,omitempty"`

	Compiled any `json:"-"` // *vm.Program, set at load time by Validate
}

// GetField returns a pointer to the field with the given name, or nil.
func (r *Resource) GetField(name string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the resource has a field with the given name.
func (r *Resource) HasField(name string) bool {
	return r.GetField(name) != nil
}

// FieldNames returns all field names.
func (r *Resource) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// WritableFields returns fields that can be set by the client.
// Excludes auto-generated PKs and auto-timestamp fields.
func (r *Resource) WritableFields() []Field {
	var fields []Field
	for _, f := range r.Fields {
		if f.Name == r.PrimaryKey.Field && r.PrimaryKey.Generated {
			continue
		}
		if f.IsAuto() {
			continue
		}
		if f.Name == "deleted_at" {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// FilterSpecFor returns the filter spec whose parameter name matches, or nil.
// Absence of a declaration is always an explicit nil here; callers never
// probe the descriptor any other way.
func (r *Resource) FilterSpecFor(parameter string) *FilterSpec {
	for i := range r.Filterable {
		if r.Filterable[i].Parameter == parameter {
			return &r.Filterable[i]
		}
	}
	return nil
}

// IsSortable reports whether a column may appear in an ORDER BY. The sortable
// set is the declared list plus created_at and the primary key, which are
// always orderable.
func (r *Resource) IsSortable(column string) bool {
	if column == "created_at" || column == r.PrimaryKey.Field {
		return true
	}
	for _, c := range r.Sortable {
		if c == column {
			return true
		}
	}
	return false
}

// Name fragments that mark a text column as a sensible free-text search
// target when the descriptor declares no searchable fields.
var searchHints = []string{
	"name", "title", "description", "email", "sku", "brand",
	"category", "label", "slug", "code", "address", "city", "country",
}

// Columns that must never be matched by free-text search, declared or not.
var searchExcluded = []string{"password", "secret", "token", "hash"}

// SearchableColumns returns the columns a free-text search matches against.
// A declared searchable list wins; otherwise string fields whose names carry
// a recognizable domain hint are inferred. Password-like columns are dropped
// in both cases.
func (r *Resource) SearchableColumns() []string {
	var cols []string
	if len(r.Searchable) > 0 {
		for _, name := range r.Searchable {
			if r.HasField(name) && !isExcludedFromSearch(name) {
				cols = append(cols, name)
			}
		}
		return cols
	}
	for _, f := range r.Fields {
		if !f.IsString() || isExcludedFromSearch(f.Name) {
			continue
		}
		lower := strings.ToLower(f.Name)
		for _, hint := range searchHints {
			if strings.Contains(lower, hint) {
				cols = append(cols, f.Name)
				break
			}
		}
	}
	return cols
}

func isExcludedFromSearch(name string) bool {
	lower := strings.ToLower(name)
	for _, ex := range searchExcluded {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}

// Validate checks descriptor invariants at registration time. A descriptor
// that fails here is never loaded into the registry.
func (r *Resource) Validate() error {
	if r.Name == "" || r.Table == "" {
		return fmt.Errorf("resource must declare name and table")
	}
	if r.PrimaryKey.Field == "" {
		return fmt.Errorf("resource %s: primary key field required", r.Name)
	}
	seen := make(map[string]bool, len(r.Filterable))
	for _, fs := range r.Filterable {
		if fs.Parameter == "" || fs.Column == "" {
			return fmt.Errorf("resource %s: filter spec must declare parameter and column", r.Name)
		}
		if seen[fs.Parameter] {
			return fmt.Errorf("resource %s: duplicate filter parameter %q", r.Name, fs.Parameter)
		}
		seen[fs.Parameter] = true
		if !r.HasField(fs.Column) {
			return fmt.Errorf("resource %s: filter %q maps to unknown column %q", r.Name, fs.Parameter, fs.Column)
		}
	}
	for _, col := range r.Sortable {
		if !r.HasField(col) {
			return fmt.Errorf("resource %s: sortable column %q not declared as a field", r.Name, col)
		}
	}
	for _, col := range r.Searchable {
		if !r.HasField(col) {
			return fmt.Errorf("resource %s: searchable column %q not declared as a field", r.Name, col)
		}
	}
	if r.DefaultSort != nil && !r.HasField(r.DefaultSort.Column) {
		return fmt.Errorf("resource %s: default sort column %q not declared as a field", r.Name, r.DefaultSort.Column)
	}
	// Expression rules compile here so the descriptor stays read-only after
	// registration; a bad expression rejects the whole descriptor.
	for i := range r.Rules {
		rule := &r.Rules[i]
		if rule.Type != "expression" {
			continue
		}
		prog, err := expr.Compile(rule.Expression, expr.AsBool())
		if err != nil {
			return fmt.Errorf("resource %s: invalid rule expression %q: %w", r.Name, rule.Expression, err)
		}
		rule.Compiled = prog
	}
	return nil
}
