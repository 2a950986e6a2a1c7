package engine

import (
	"fmt"
	"strings"
	"sync"

	"resource-backend/internal/metadata"
)

// ListPlan is the normalized input to the read-side SQL builders. Every
// identifier it carries has already been resolved through the capability
// descriptor; raw client strings never reach this struct as column names.
type ListPlan struct {
	Resource *metadata.Resource
	Filter   *AppliedFilter
	Search   string
	Sort     *Sort
	Page     int
	PerPage  int
}

type QueryResult struct {
	SQL    string
	Params []any
}

type paramBuilder struct {
	params []any
	n      int
}

func (p *paramBuilder) Add(v any) string {
	p.n++
	p.params = append(p.params, v)
	return fmt.Sprintf("$%d", p.n)
}

// FilterResolver builds a custom WHERE fragment for a filter value. The
// fragment must reference parameters through pb.Add, never by interpolating
// the value.
type FilterResolver func(pb *paramBuilder, column string, value string) string

var (
	resolverMu sync.RWMutex
	resolvers  = map[string]FilterResolver{}
)

// RegisterFilterResolver installs a named resolver that descriptors can
// reference in a FilterSpec. Registration happens at startup, before any
// request is served.
func RegisterFilterResolver(name string, fn FilterResolver) {
	resolverMu.Lock()
	defer resolverMu.Unlock()
	resolvers[name] = fn
}

func lookupResolver(name string) FilterResolver {
	resolverMu.RLock()
	defer resolverMu.RUnlock()
	return resolvers[name]
}

// BuildSelectSQL builds the parameterized page-slice SELECT for a plan.
// Offset math assumes plan.Page has already been clamped by Paginate.
func BuildSelectSQL(plan *ListPlan) QueryResult {
	pb := &paramBuilder{}
	res := plan.Resource

	columns := strings.Join(selectColumns(res), ", ")

	sql := fmt.Sprintf("SELECT %s FROM %s", columns, res.Table)
	if where := buildWhere(plan, pb); where != "" {
		sql += " WHERE " + where
	}
	sql += " ORDER BY " + orderClause(plan)

	limit := pb.Add(plan.PerPage)
	offset := pb.Add((plan.Page - 1) * plan.PerPage)
	sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)

	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildCountSQL builds the COUNT query with the same predicates as the
// select, independent of pagination.
func BuildCountSQL(plan *ListPlan) QueryResult {
	pb := &paramBuilder{}

	sql := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", plan.Resource.Table)
	if where := buildWhere(plan, pb); where != "" {
		sql += " WHERE " + where
	}

	return QueryResult{SQL: sql, Params: pb.params}
}

func selectColumns(res *metadata.Resource) []string {
	cols := res.FieldNames()
	if res.SoftDelete && res.GetField("deleted_at") == nil {
		cols = append(cols, "deleted_at")
	}
	return cols
}

func buildWhere(plan *ListPlan, pb *paramBuilder) string {
	var where []string

	if plan.Resource.SoftDelete {
		where = append(where, "deleted_at IS NULL")
	}
	if plan.Filter != nil {
		where = append(where, filterClause(plan.Filter, pb))
	}
	if plan.Search != "" {
		if clause := searchClause(plan.Resource, plan.Search, pb); clause != "" {
			where = append(where, clause)
		}
	}

	return strings.Join(where, " AND ")
}

// filterClause renders the single active filter. The column comes from the
// descriptor's FilterSpec, never from the request.
func filterClause(f *AppliedFilter, pb *paramBuilder) string {
	spec := f.Spec
	value := fmt.Sprintf("%v", f.Value)

	if spec.Resolver != "" {
		if fn := lookupResolver(spec.Resolver); fn != nil {
			return fn(pb, spec.Column, value)
		}
	}

	switch spec.Operator {
	case "eq", "":
		return fmt.Sprintf("%s = %s", spec.Column, pb.Add(value))
	case "neq":
		return fmt.Sprintf("%s != %s", spec.Column, pb.Add(value))
	case "gt":
		return fmt.Sprintf("%s > %s", spec.Column, pb.Add(value))
	case "gte":
		return fmt.Sprintf("%s >= %s", spec.Column, pb.Add(value))
	case "lt":
		return fmt.Sprintf("%s < %s", spec.Column, pb.Add(value))
	case "lte":
		return fmt.Sprintf("%s <= %s", spec.Column, pb.Add(value))
	case "like":
		return fmt.Sprintf("%s ILIKE %s", spec.Column, pb.Add("%"+value+"%"))
	default:
		return fmt.Sprintf("%s = %s", spec.Column, pb.Add(value))
	}
}

// searchClause ORs a case-insensitive partial match across every searchable
// column. Returns "" when the resource has nothing searchable, in which case
// the search narrows nothing.
func searchClause(res *metadata.Resource, term string, pb *paramBuilder) string {
	cols := res.SearchableColumns()
	if len(cols) == 0 {
		return ""
	}

	pattern := pb.Add("%" + term + "%")
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE %s", col, pattern)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// orderClause picks the effective ordering: the normalized client sort when
// one was requested, else the descriptor's default sort, else the primary key
// so pagination stays deterministic.
func orderClause(plan *ListPlan) string {
	res := plan.Resource

	if plan.Sort != nil {
		return fmt.Sprintf("%s %s", plan.Sort.Column, strings.ToUpper(plan.Sort.Dir))
	}
	if ds := res.DefaultSort; ds != nil {
		dir := "ASC"
		if strings.EqualFold(ds.Dir, "desc") {
			dir = "DESC"
		}
		return fmt.Sprintf("%s %s", ds.Column, dir)
	}
	return res.PrimaryKey.Field + " ASC"
}
