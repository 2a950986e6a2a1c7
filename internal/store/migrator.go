package store

import (
	"context"
	"fmt"
	"strings"

	"resource-backend/internal/metadata"
)

type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// EnsureTable creates the backing table for a resource if it doesn't exist.
// Existing tables are left untouched; descriptor changes that require column
// migration are applied out of band.
func (m *Migrator) EnsureTable(ctx context.Context, res *metadata.Resource) error {
	exists, err := m.tableExists(ctx, res.Table)
	if err != nil {
		return fmt.Errorf("check table exists: %w", err)
	}
	if exists {
		return nil
	}
	return m.createTable(ctx, res)
}

// EnsureAll runs EnsureTable for every registered resource.
func (m *Migrator) EnsureAll(ctx context.Context, reg *metadata.Registry) error {
	for _, res := range reg.AllResources() {
		if err := m.EnsureTable(ctx, res); err != nil {
			return fmt.Errorf("ensure table for %s: %w", res.Name, err)
		}
	}
	return nil
}

func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	var exists bool
	err := m.store.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM information_schema.tables WHERE table_name = $1 AND table_schema = 'public')`,
		tableName,
	).Scan(&exists)
	return exists, err
}

func (m *Migrator) createTable(ctx context.Context, res *metadata.Resource) error {
	var cols []string
	for i := range res.Fields {
		cols = append(cols, m.buildColumnDef(res, &res.Fields[i]))
	}

	if res.SoftDelete && res.GetField("deleted_at") == nil {
		cols = append(cols, "deleted_at TIMESTAMPTZ")
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", res.Table, strings.Join(cols, ",\n  "))
	if _, err := m.store.Pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create table %s: %w", res.Table, err)
	}

	if err := m.createIndexes(ctx, res); err != nil {
		return fmt.Errorf("create indexes for %s: %w", res.Table, err)
	}
	return nil
}

func (m *Migrator) buildColumnDef(res *metadata.Resource, f *metadata.Field) string {
	col := fmt.Sprintf("%s %s", f.Name, f.PostgresType())

	if f.Name == res.PrimaryKey.Field {
		if res.PrimaryKey.Generated {
			switch res.PrimaryKey.Type {
			case "uuid":
				col += " PRIMARY KEY DEFAULT gen_random_uuid()"
			case "int", "bigint":
				col += " GENERATED ALWAYS AS IDENTITY PRIMARY KEY"
			default:
				col += " PRIMARY KEY"
			}
		} else {
			col += " PRIMARY KEY"
		}
		return col
	}

	if f.Required && !f.Nullable {
		col += " NOT NULL"
	}
	if f.Auto == "create" || f.Auto == "update" {
		col += " DEFAULT NOW()"
	}
	return col
}

func (m *Migrator) createIndexes(ctx context.Context, res *metadata.Resource) error {
	for _, f := range res.Fields {
		if !f.Unique || f.Name == res.PrimaryKey.Field {
			continue
		}
		sql := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
			res.Table, f.Name, res.Table, f.Name)
		if _, err := m.store.Pool.Exec(ctx, sql); err != nil {
			return err
		}
	}
	return nil
}
