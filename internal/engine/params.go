package engine

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"resource-backend/internal/config"
	"resource-backend/internal/metadata"
)

// Defaults carries the immutable request-shaping configuration injected into
// the engine at construction. Every interpreter function reads from here
// instead of scattering literals.
type Defaults struct {
	PerPage         int
	MaxPerPage      int
	SortColumn      string
	MinSearchLength int
}

func DefaultsFromConfig(cfg config.EngineConfig) Defaults {
	d := Defaults{
		PerPage:         cfg.DefaultPerPage,
		MaxPerPage:      cfg.MaxPerPage,
		SortColumn:      cfg.DefaultSort,
		MinSearchLength: cfg.MinSearchLength,
	}
	if d.PerPage <= 0 {
		d.PerPage = 15
	}
	if d.MaxPerPage <= 0 {
		d.MaxPerPage = 100
	}
	if d.SortColumn == "" {
		d.SortColumn = "id"
	}
	if d.MinSearchLength <= 0 {
		d.MinSearchLength = 2
	}
	return d
}

// Sort is a normalized, descriptor-checked sort request.
type Sort struct {
	Column string `json:"column"`
	Dir    string `json:"dir"`
}

// AppliedFilter is the single active filter reflected back in metadata.
// Spec points at the descriptor entry that produced it.
type AppliedFilter struct {
	Field string `json:"field"`
	Value any    `json:"value"`

	Spec *metadata.FilterSpec `json:"-"`
}

// NormalizePage interprets the raw page parameter. Absent input defaults to
// page 1 silently; anything non-numeric or below 1 defaults to 1 with a
// warning. Clamping against the total page count happens later, in Paginate,
// once the count query has run.
func NormalizePage(raw string) (int, []Notification) {
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1, []Notification{warning("page", "Invalid page number, using page 1")}
	}
	return page, nil
}

// NormalizePerPage interprets the raw per_page parameter, clamping into
// [1, MaxPerPage]. Exactly one warning is emitted for any out-of-range or
// malformed value.
func NormalizePerPage(raw string, d Defaults) (int, []Notification) {
	if raw == "" {
		return d.PerPage, nil
	}
	perPage, err := strconv.Atoi(raw)
	if err != nil {
		msg := fmt.Sprintf("Page size must be a positive integer. Using default value of %d.", d.PerPage)
		return d.PerPage, []Notification{warning("per_page", msg)}
	}
	if perPage > d.MaxPerPage {
		msg := fmt.Sprintf("Page size exceeds maximum of %d, using maximum %d.", d.MaxPerPage, d.MaxPerPage)
		return d.MaxPerPage, []Notification{warning("per_page", msg)}
	}
	if perPage < 1 {
		return 1, []Notification{warning("per_page", "Page size below minimum of 1, using minimum 1.")}
	}
	return perPage, nil
}

// NormalizeSort interprets the sort and dir parameters against the resource's
// sortable set. When no sort parameter was given at all the result is nil and
// the response's sort metadata stays null. An unknown column falls back to
// the configured default; an unknown direction falls back to asc.
func NormalizeSort(rawCol, rawDir string, res *metadata.Resource, d Defaults) (*Sort, []Notification) {
	if rawCol == "" {
		return nil, nil
	}

	var notes []Notification

	col := rawCol
	if !res.IsSortable(col) {
		notes = append(notes, warning("sort",
			fmt.Sprintf("Sort column '%s' not found, using default '%s'", col, d.SortColumn)))
		col = d.SortColumn
	}

	dir := strings.ToLower(rawDir)
	switch dir {
	case "":
		dir = "asc"
	case "asc", "desc":
	default:
		notes = append(notes, warning("dir",
			fmt.Sprintf("Sort direction '%s' not recognized, using 'asc'", rawDir)))
		dir = "asc"
	}

	return &Sort{Column: col, Dir: dir}, notes
}

// NormalizeSearch trims the raw search term and drops anything shorter than
// the configured minimum. An empty result means no search is applied and the
// response's search metadata stays null.
func NormalizeSearch(raw string, d Defaults) (string, []Notification) {
	term := strings.TrimSpace(raw)
	if term == "" {
		return "", nil
	}
	if utf8.RuneCountInString(term) < d.MinSearchLength {
		msg := fmt.Sprintf("Search term too short (minimum %d characters), search ignored", d.MinSearchLength)
		return "", []Notification{warning("search", msg)}
	}
	return term, nil
}

// NormalizeFilter interprets raw filter parameters ("field:value") in request
// order. Only one filter is ever active: each later valid filter replaces the
// previous one. Malformed values and undeclared fields are dropped with a
// warning; a value outside a spec's allow-list is dropped silently.
func NormalizeFilter(raws []string, res *metadata.Resource) (*AppliedFilter, []Notification) {
	var applied *AppliedFilter
	var notes []Notification

	for _, raw := range raws {
		if raw == "" {
			continue
		}
		field, value, ok := strings.Cut(raw, ":")
		if !ok || field == "" {
			notes = append(notes, warning("filter",
				fmt.Sprintf("Filter format %s not recognized, filter ignored", raw)))
			continue
		}

		spec := res.FilterSpecFor(field)
		if spec == nil {
			notes = append(notes, warning("filter",
				fmt.Sprintf("Invalid filter field: %s", field)))
			continue
		}

		if len(spec.Values) > 0 && !containsString(spec.Values, value) {
			continue
		}

		applied = &AppliedFilter{Field: field, Value: value, Spec: spec}
	}

	return applied, notes
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
