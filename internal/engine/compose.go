package engine

import "resource-backend/internal/metadata"

// FilterMeta is the filters block of a list envelope: the single applied
// filter (or null) plus every filter the descriptor makes available.
type FilterMeta struct {
	Applied   *AppliedFilter `json:"applied"`
	Available []FilterOption `json:"available"`
}

type FilterOption struct {
	Field string   `json:"field"`
	Value []string `json:"value"`
}

// ListMetadata bundles the five negotiated metadata keys of a list response.
// Each key follows the same precedence: declared beats inferred beats absent.
type ListMetadata struct {
	Search  *string
	Sort    *Sort
	Filters *FilterMeta
	Schema  []metadata.SchemaGroup
	Columns []metadata.Column
}

// ComposeMetadata assembles the list metadata from the capability descriptor
// and the normalized request. search and sort echo the corrected values, and
// stay null when the client didn't ask; filters is null when the descriptor
// declares nothing filterable.
func ComposeMetadata(res *metadata.Resource, filter *AppliedFilter, search string, sort *Sort) ListMetadata {
	meta := ListMetadata{
		Sort:    sort,
		Schema:  schemaFor(res),
		Columns: columnsFor(res),
	}

	if search != "" {
		meta.Search = &search
	}

	if len(res.Filterable) > 0 {
		available := make([]FilterOption, 0, len(res.Filterable))
		for _, spec := range res.Filterable {
			values := spec.Values
			if values == nil {
				values = []string{}
			}
			available = append(available, FilterOption{Field: spec.Parameter, Value: values})
		}
		meta.Filters = &FilterMeta{Applied: filter, Available: available}
	}

	return meta
}
