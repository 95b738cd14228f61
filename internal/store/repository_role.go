package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

type roleRepository struct {
	db     *DB
	schema config.RoleSchema
	logger *logger.Logger
}

// NewRoleRepository constructs a [RoleRepository] over the configured role
// and menu tables. Every configured name is validated up front.
func NewRoleRepository(db *DB, schema config.RoleSchema, logger *logger.Logger) (RoleRepository, error) {
	for what, name := range map[string]string{
		"role table":     schema.RoleTable,
		"role id field":  schema.RoleIDField,
		"menu ids field": schema.MenuIDsField,
		"menu table":     schema.MenuTable,
		"menu id field":  schema.MenuIDField,
	} {
		if err := validateIdentifier(what, name); err != nil {
			return nil, err
		}
	}

	logger.Debug().Str("table", schema.RoleTable).Msg("creating role repository")
	return &roleRepository{db: db, schema: schema, logger: logger}, nil
}

// GetRole returns the role row with the given id, [ErrRoleNotFound] if none.
func (r *roleRepository) GetRole(ctx context.Context, roleID int64) (map[string]any, error) {
	query, args, err := r.db.builder.
		Select("*").
		From(r.schema.RoleTable).
		Where(sq.Eq{r.schema.RoleIDField: roleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := queryMaps(ctx, r.db, query, args)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*roleRepository.GetRole").Msg("error selecting role")
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrRoleNotFound
	}

	return rows[0], nil
}

// ListMenus returns the menu rows whose id is in menuIDs, in id order.
func (r *roleRepository) ListMenus(ctx context.Context, menuIDs []int64) ([]map[string]any, error) {
	if len(menuIDs) == 0 {
		return []map[string]any{}, nil
	}

	query, args, err := r.db.builder.
		Select("*").
		From(r.schema.MenuTable).
		Where(sq.Eq{r.schema.MenuIDField: menuIDs}).
		OrderBy(r.schema.MenuIDField).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := queryMaps(ctx, r.db, query, args)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*roleRepository.ListMenus").Msg("error selecting menus")
		return nil, err
	}

	return rows, nil
}

// queryMaps runs query and returns every row as a column → value map.
// Byte slices are converted to strings so that rows encode cleanly as JSON.
func queryMaps(ctx context.Context, db *DB, query string, args []any) ([]map[string]any, error) {
	var result []map[string]any

	err := db.withRetry(ctx, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		result, err = scanMaps(rows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return result, nil
}

func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		row := make(map[string]any, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
