package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoadAll reads all resource descriptors from the database and populates the
// registry. Descriptors that fail to parse or validate are skipped with a
// warning rather than aborting startup.
func LoadAll(ctx context.Context, pool *pgxpool.Pool, reg *Registry) error {
	rows, err := pool.Query(ctx, "SELECT name, definition FROM _resources ORDER BY name")
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	defer rows.Close()

	var resources []*Resource
	for rows.Next() {
		var name string
		var defJSON []byte
		if err := rows.Scan(&name, &defJSON); err != nil {
			return fmt.Errorf("scan resource row: %w", err)
		}

		var res Resource
		if err := json.Unmarshal(defJSON, &res); err != nil {
			log.Printf("WARN: skipping resource %s (invalid JSON): %v", name, err)
			continue
		}
		if err := res.Validate(); err != nil {
			log.Printf("WARN: skipping resource %s: %v", name, err)
			continue
		}
		resources = append(resources, &res)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate resource rows: %w", err)
	}

	reg.Load(resources)
	log.Printf("Loaded %d resources into registry", len(resources))
	return nil
}
