package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resource-backend/internal/metadata"
)

func TestBuildSelectSQL_FilterAndSearch(t *testing.T) {
	res := testResource()
	plan := &ListPlan{
		Resource: res,
		Filter:   mustFilter(t, res, "status:active"),
		Search:   "phone",
		Page:     1,
		PerPage:  10,
	}

	qr := BuildSelectSQL(plan)

	assert.Equal(t,
		"SELECT id, name, description, price, status, created_at, updated_at FROM products"+
			" WHERE status = $1 AND (name ILIKE $2 OR description ILIKE $2)"+
			" ORDER BY id ASC LIMIT $3 OFFSET $4",
		qr.SQL)
	assert.Equal(t, []any{"active", "%phone%", 10, 0}, qr.Params)
}

func TestBuildSelectSQL_SortAndOffset(t *testing.T) {
	res := testResource()
	plan := &ListPlan{
		Resource: res,
		Sort:     &Sort{Column: "name", Dir: "desc"},
		Page:     3,
		PerPage:  10,
	}

	qr := BuildSelectSQL(plan)
	assert.Contains(t, qr.SQL, "ORDER BY name DESC")
	assert.Equal(t, []any{10, 20}, qr.Params)
}

func TestBuildSelectSQL_DescriptorDefaultSort(t *testing.T) {
	res := testResource()
	res.DefaultSort = &metadata.SortSpec{Column: "created_at", Dir: "desc"}

	qr := BuildSelectSQL(&ListPlan{Resource: res, Page: 1, PerPage: 15})
	assert.Contains(t, qr.SQL, "ORDER BY created_at DESC")
}

func TestBuildCountSQL_SharesPredicates(t *testing.T) {
	res := testResource()
	plan := &ListPlan{
		Resource: res,
		Filter:   mustFilter(t, res, "status:draft"),
		Search:   "lamp",
		Page:     7,
		PerPage:  10,
	}

	qr := BuildCountSQL(plan)
	assert.Equal(t,
		"SELECT COUNT(*) AS count FROM products"+
			" WHERE status = $1 AND (name ILIKE $2 OR description ILIKE $2)",
		qr.SQL)
	assert.Equal(t, []any{"draft", "%lamp%"}, qr.Params)
}

func TestFilterColumnComesFromDescriptor(t *testing.T) {
	// The request parameter name never reaches the SQL; the descriptor's
	// column mapping does.
	res := testResource()
	applied, notes := NormalizeFilter([]string{"brand:acme"}, res)
	require.NotNil(t, applied)
	require.Empty(t, notes)

	qr := BuildCountSQL(&ListPlan{Resource: res, Filter: applied})
	assert.Contains(t, qr.SQL, "name ILIKE $1")
	assert.NotContains(t, qr.SQL, "brand")
	assert.Equal(t, []any{"%acme%"}, qr.Params)
}

func TestSearchSkippedWhenNothingSearchable(t *testing.T) {
	res := testResource()
	res.Searchable = nil
	res.Fields = res.Fields[:1] // only the id column remains

	qr := BuildCountSQL(&ListPlan{Resource: res, Search: "phone"})
	assert.Equal(t, "SELECT COUNT(*) AS count FROM products", qr.SQL)
	assert.Empty(t, qr.Params)
}

func TestSoftDeletePredicate(t *testing.T) {
	res := testResource()
	res.SoftDelete = true

	qr := BuildCountSQL(&ListPlan{Resource: res})
	assert.Contains(t, qr.SQL, "deleted_at IS NULL")

	sel := BuildSelectSQL(&ListPlan{Resource: res, Page: 1, PerPage: 15})
	assert.Contains(t, sel.SQL, "deleted_at")
}

func TestFilterResolver(t *testing.T) {
	RegisterFilterResolver("price_band", func(pb *paramBuilder, column, value string) string {
		switch value {
		case "cheap":
			return fmt.Sprintf("%s < %s", column, pb.Add(10))
		default:
			return fmt.Sprintf("%s >= %s", column, pb.Add(10))
		}
	})

	res := testResource()
	res.Filterable = append(res.Filterable, metadata.FilterSpec{
		Parameter: "band", Column: "price", Resolver: "price_band",
	})

	applied, _ := NormalizeFilter([]string{"band:cheap"}, res)
	require.NotNil(t, applied)

	qr := BuildCountSQL(&ListPlan{Resource: res, Filter: applied})
	assert.Contains(t, qr.SQL, "price < $1")
	assert.Equal(t, []any{10}, qr.Params)
}

func mustFilter(t *testing.T, res *metadata.Resource, raw string) *AppliedFilter {
	t.Helper()
	applied, _ := NormalizeFilter([]string{raw}, res)
	require.NotNil(t, applied)
	return applied
}
