package engine

import (
	"log"
	"strings"

	"resource-backend/internal/metadata"
)

// schemaFor returns the form schema metadata for a resource: the declared
// template as-is when one exists, otherwise a single auto-generated group
// derived from the resource's field definitions. A panic during generation is
// logged and degrades to nil; it never becomes a request error.
func schemaFor(res *metadata.Resource) (schema []metadata.SchemaGroup) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: schema generation for %s: %v", res.Name, r)
			schema = nil
		}
	}()

	if len(res.Schema) > 0 {
		return res.Schema
	}

	fields := res.WritableFields()
	generated := make([]metadata.SchemaField, 0, len(fields))
	for _, f := range fields {
		generated = append(generated, generateSchemaField(f))
	}

	return []metadata.SchemaGroup{{Group: "General Information", Fields: generated}}
}

// columnsFor returns the declared index columns, or the default single-ID
// column set. Like schemaFor, failures degrade to the default rather than
// erroring the request.
func columnsFor(res *metadata.Resource) (cols []metadata.Column) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: columns generation for %s: %v", res.Name, r)
			cols = defaultColumns()
		}
	}()

	if len(res.Columns) > 0 {
		return res.Columns
	}
	return defaultColumns()
}

func defaultColumns() []metadata.Column {
	return []metadata.Column{{
		Field:     "id",
		Label:     "ID",
		Sortable:  true,
		Clickable: true,
		Search:    false,
		Format:    "text",
		Align:     "left",
	}}
}

// generateSchemaField derives one form input from a field definition.
// The declared type (cast) wins; a plain string field falls back to name
// heuristics for input type, placeholder and constraints.
func generateSchemaField(f metadata.Field) metadata.SchemaField {
	sf := metadata.SchemaField{
		Field:    f.Name,
		Label:    labelFor(f.Name),
		Required: f.Required,
		Unique:   f.Unique,
	}

	if len(f.Enum) > 0 {
		sf.Type = "select"
		sf.Options = f.Enum
		sf.Placeholder = "Select " + sf.Label
		return sf
	}

	switch f.Type {
	case "boolean":
		sf.Type = "checkbox"
	case "int", "bigint":
		sf.Type = "number"
	case "decimal":
		sf.Type = "decimal"
	case "timestamp":
		sf.Type = "datetime-local"
	case "date":
		sf.Type = "date"
	case "json":
		sf.Type = "textarea"
	default:
		inferFromName(&sf, f.Name)
	}

	if sf.Placeholder == "" {
		sf.Placeholder = "Enter " + sf.Label
	}
	return sf
}

// inferFromName applies name heuristics to a string-typed field, setting the
// input type plus any constraints the name implies.
func inferFromName(sf *metadata.SchemaField, name string) {
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "email"):
		sf.Type = "email"
		sf.Placeholder = "Enter your email address"
		sf.Unique = true
		sf.MaxLength = 255

	case strings.Contains(lower, "password"):
		sf.Type = "password"
		sf.Placeholder = "Enter your password"
		sf.MinLength = 8

	case strings.Contains(lower, "phone") || strings.Contains(lower, "tel"):
		sf.Type = "tel"
		sf.Pattern = `^\+?[0-9\s\-()]{7,20}$`
		sf.Unique = true

	case strings.Contains(lower, "url") || strings.Contains(lower, "link") || strings.Contains(lower, "website"):
		sf.Type = "url"

	case strings.Contains(lower, "color") || strings.Contains(lower, "colour"):
		sf.Type = "color"

	case strings.Contains(lower, "price") || strings.Contains(lower, "cost") || strings.Contains(lower, "amount"):
		sf.Type = "decimal"
		sf.Step = 0.01
		sf.Min = floatPtr(0)
		sf.Prefix = "$"

	case strings.Contains(lower, "percentage") || strings.Contains(lower, "percent"):
		sf.Type = "percentage"
		sf.Min = floatPtr(0)
		sf.Max = floatPtr(100)

	case strings.Contains(lower, "weight"):
		sf.Type = "decimal"
		sf.Min = floatPtr(0)
		sf.Suffix = "kg"

	case strings.Contains(lower, "height") || strings.Contains(lower, "width") || strings.Contains(lower, "length"):
		sf.Type = "decimal"
		sf.Min = floatPtr(0)
		sf.Suffix = "cm"

	case strings.Contains(lower, "description") || strings.Contains(lower, "content") ||
		strings.Contains(lower, "notes") || strings.Contains(lower, "summary"):
		sf.Type = "textarea"

	case strings.Contains(lower, "image") || strings.Contains(lower, "photo") || strings.Contains(lower, "avatar"):
		sf.Type = "file"

	default:
		sf.Type = "text"
	}
}

// labelFor turns an attribute name into a title-cased label, with
// underscores and hyphens read as word breaks.
func labelFor(name string) string {
	cleaned := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(cleaned)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}

func floatPtr(v float64) *float64 {
	return &v
}
