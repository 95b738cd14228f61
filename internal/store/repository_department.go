package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

type departmentRepository struct {
	db     *DB
	schema config.DepartmentSchema
	logger *logger.Logger
}

// NewDepartmentRepository constructs a [DepartmentRepository] over the
// configured department table.
func NewDepartmentRepository(db *DB, schema config.DepartmentSchema, logger *logger.Logger) (DepartmentRepository, error) {
	if err := validateIdentifier("department table", schema.DepartmentTable); err != nil {
		return nil, err
	}
	if err := validateIdentifier("department id field", schema.DepartmentIDField); err != nil {
		return nil, err
	}

	logger.Debug().Str("table", schema.DepartmentTable).Msg("creating department repository")
	return &departmentRepository{db: db, schema: schema, logger: logger}, nil
}

func (r *departmentRepository) ListDepartments(ctx context.Context, ids []int64) ([]map[string]any, error) {
	if len(ids) == 0 {
		return []map[string]any{}, nil
	}

	query, args, err := r.db.builder.
		Select("*").
		From(r.schema.DepartmentTable).
		Where(sq.Eq{r.schema.DepartmentIDField: ids}).
		OrderBy(r.schema.DepartmentIDField).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := queryMaps(ctx, r.db, query, args)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*departmentRepository.ListDepartments").Msg("error selecting departments")
		return nil, err
	}

	return rows, nil
}
