package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"resource-backend/internal/metadata"
	"resource-backend/internal/store"
)

// WritePlan describes a validated create or update, ready to execute.
type WritePlan struct {
	IsCreate bool
	Resource *metadata.Resource
	Fields   map[string]any
	ID       any // nil for create
}

// PlanWrite validates the request body against the capability descriptor and
// builds a WritePlan without executing any SQL. Unknown keys, missing
// required fields, type mismatches and enum violations all surface as
// per-field details for a VALIDATION_FAILED envelope.
func PlanWrite(res *metadata.Resource, body map[string]any, existingID any) (*WritePlan, []ErrorDetail) {
	isCreate := existingID == nil

	writable := make(map[string]*metadata.Field)
	for _, f := range res.WritableFields() {
		f := f
		writable[f.Name] = &f
	}

	var errs []ErrorDetail
	fields := make(map[string]any, len(body))

	for key, raw := range body {
		f, ok := writable[key]
		if !ok {
			errs = append(errs, ErrorDetail{
				Field:   key,
				Rule:    "unknown",
				Message: fmt.Sprintf("Unknown field: %s", key),
			})
			continue
		}
		coerced, err := coerceBodyValue(f, raw)
		if err != nil {
			errs = append(errs, ErrorDetail{
				Field:   key,
				Rule:    "type",
				Message: err.Error(),
			})
			continue
		}
		fields[key] = coerced
	}

	if isCreate {
		for name, f := range writable {
			if !f.Required {
				continue
			}
			if v, ok := fields[name]; !ok || v == nil {
				errs = append(errs, ErrorDetail{
					Field:   name,
					Rule:    "required",
					Message: fmt.Sprintf("Field %s is required", name),
				})
			}
		}
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return nil, errs
	}

	return &WritePlan{
		IsCreate: isCreate,
		Resource: res,
		Fields:   fields,
		ID:       existingID,
	}, nil
}

// coerceBodyValue checks a decoded JSON value against the field's declared
// type. JSON numbers arrive as float64; integral casts reject fractions.
func coerceBodyValue(f *metadata.Field, v any) (any, error) {
	if v == nil {
		if f.Required && !f.Nullable {
			return nil, fmt.Errorf("Field %s may not be null", f.Name)
		}
		return nil, nil
	}

	switch f.Type {
	case "int", "bigint":
		num, ok := v.(float64)
		if !ok || num != math.Trunc(num) {
			return nil, fmt.Errorf("Field %s must be an integer", f.Name)
		}
		return int64(num), nil
	case "decimal":
		num, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("Field %s must be a number", f.Name)
		}
		return num, nil
	case "boolean":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("Field %s must be a boolean", f.Name)
		}
		return b, nil
	case "json":
		return v, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("Field %s must be a string", f.Name)
		}
		if len(f.Enum) > 0 && !containsString(f.Enum, s) {
			return nil, fmt.Errorf("Field %s must be one of: %s", f.Name, strings.Join(f.Enum, ", "))
		}
		return s, nil
	}
}

// ExecuteWritePlan runs the write inside a single transaction: rules, then
// the INSERT or UPDATE, then commit. A rule violation rolls everything back.
// Returns the full record as stored.
func ExecuteWritePlan(ctx context.Context, s *store.Store, plan *WritePlan) (map[string]any, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var old map[string]any
	if !plan.IsCreate {
		old, _ = fetchRecord(ctx, tx, plan.Resource, plan.ID)
	}
	if old == nil {
		old = map[string]any{}
	}

	if ruleErrs := EvaluateRules(plan.Resource, plan.Fields, old, plan.IsCreate); len(ruleErrs) > 0 {
		return nil, ValidationError(ruleErrs)
	}

	var recordID any
	if plan.IsCreate {
		sql, params := BuildInsertSQL(plan.Resource, plan.Fields)
		row, err := store.QueryRow(ctx, tx, sql, params...)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", plan.Resource.Table, err)
		}
		recordID = row[plan.Resource.PrimaryKey.Field]
	} else {
		recordID = plan.ID
		sql, params := BuildUpdateSQL(plan.Resource, plan.ID, plan.Fields)
		if sql != "" {
			if _, err := store.Exec(ctx, tx, sql, params...); err != nil {
				return nil, fmt.Errorf("update %s: %w", plan.Resource.Table, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return fetchRecord(ctx, s.Pool, plan.Resource, recordID)
}

// BuildInsertSQL builds a parameterized INSERT returning the primary key.
// Field order is sorted for deterministic SQL.
func BuildInsertSQL(res *metadata.Resource, fields map[string]any) (string, []any) {
	pb := &paramBuilder{}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var cols, placeholders []string
	for _, name := range names {
		cols = append(cols, name)
		placeholders = append(placeholders, pb.Add(fields[name]))
	}
	for _, f := range res.Fields {
		if f.IsAuto() {
			cols = append(cols, f.Name)
			placeholders = append(placeholders, "NOW()")
		}
	}

	// A valid empty body on a resource with no auto fields still has to
	// produce well-formed SQL.
	if len(cols) == 0 {
		sql := fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s",
			res.Table, res.PrimaryKey.Field)
		return sql, nil
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		res.Table,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		res.PrimaryKey.Field,
	)
	return sql, pb.params
}

// BuildUpdateSQL builds a parameterized UPDATE for the given record. Returns
// an empty string when there is nothing to set.
func BuildUpdateSQL(res *metadata.Resource, id any, fields map[string]any) (string, []any) {
	if len(fields) == 0 {
		return "", nil
	}
	pb := &paramBuilder{}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []string
	for _, name := range names {
		sets = append(sets, fmt.Sprintf("%s = %s", name, pb.Add(fields[name])))
	}
	for _, f := range res.Fields {
		if f.Auto == "update" {
			sets = append(sets, f.Name+" = NOW()")
		}
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		res.Table,
		strings.Join(sets, ", "),
		res.PrimaryKey.Field,
		pb.Add(id),
	)
	return sql, pb.params
}

// BuildDeleteSQL builds the delete statement: a soft delete marks the row,
// a hard delete removes it.
func BuildDeleteSQL(res *metadata.Resource, id any) (string, []any) {
	pb := &paramBuilder{}
	if res.SoftDelete {
		sql := fmt.Sprintf("UPDATE %s SET deleted_at = NOW() WHERE %s = %s AND deleted_at IS NULL",
			res.Table, res.PrimaryKey.Field, pb.Add(id))
		return sql, pb.params
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = %s",
		res.Table, res.PrimaryKey.Field, pb.Add(id))
	return sql, pb.params
}

// fetchRecord loads one record by primary key, excluding soft-deleted rows.
func fetchRecord(ctx context.Context, q store.Querier, res *metadata.Resource, id any) (map[string]any, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		strings.Join(selectColumns(res), ", "), res.Table, res.PrimaryKey.Field)
	if res.SoftDelete {
		sql += " AND deleted_at IS NULL"
	}
	return store.QueryRow(ctx, q, sql, id)
}
