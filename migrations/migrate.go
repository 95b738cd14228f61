// Package migrations provisions the user table and the optional role, menu
// and department tables under the names configured in [config.Schema], so
// every key prefix gets its own tables and its own goose version table.
// Deployments binding onto an existing schema leave migrations off.
package migrations

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	"github.com/pressly/goose/v3"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

// dialects maps a database/sql driver name to the goose dialect and the
// directory holding its migration templates.
var dialects = map[string]struct {
	dialect goose.Dialect
	dir     string
}{
	config.DriverPostgres: {dialect: goose.DialectPostgres, dir: "postgres"},
	config.DriverSQLite:   {dialect: goose.DialectSQLite3, dir: "sqlite"},
}

// templateData is what the SQL templates see.
type templateData struct {
	Users      string
	Index      string
	F          config.FieldNames
	Unique     []string
	Role       config.RoleSchema
	Department config.DepartmentSchema
}

// Migrate renders the migrations for schema and applies the pending ones.
// schema must carry the effective field names (defaults already applied).
func Migrate(ctx context.Context, db *sql.DB, driver string, schema config.Schema) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("migration error: unsupported driver %q", driver)
	}

	if err := checkNames(schema); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	migrations, err := render(d.dir, newTemplateData(schema))
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	provider, err := goose.NewProvider(d.dialect, db, nil,
		goose.WithGoMigrations(migrations...),
		goose.WithDisableGlobalRegistry(true),
		goose.WithTableName(VersionTable(schema.UserTable)),
		goose.WithAllowOutofOrder(true),
		goose.WithLogger(goose.NopLogger()),
	)
	if err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// VersionTable names the goose bookkeeping table of a user table, e.g.
// "tenant_users" → "tenant_users_goose_version".
func VersionTable(userTable string) string {
	return userTable + "_goose_version"
}

func newTemplateData(schema config.Schema) templateData {
	f := schema.Fields
	return templateData{
		Users:      schema.UserTable,
		Index:      strings.ReplaceAll(schema.UserTable, ".", "_"),
		F:          f,
		Unique:     []string{f.Username, f.Phone, f.Email, f.WxWebOpenID, f.WxMiniOpenID},
		Role:       schema.Role,
		Department: schema.Department,
	}
}

// checkNames rejects anything that is not a plain identifier before it is
// spliced into DDL.
func checkNames(schema config.Schema) error {
	f := schema.Fields
	names := []string{
		schema.UserTable,
		f.ID, f.Username, f.Password, f.Email, f.Phone, f.Nickname, f.Name,
		f.RoleID, f.DepartmentIDs, f.IsDisabled, f.IsDeleted,
		f.WxWebOpenID, f.WxMiniOpenID, f.CreatedAt, f.UpdatedAt,
	}
	if schema.Role.Enabled() {
		r := schema.Role
		names = append(names, r.RoleTable, r.RoleIDField, r.MenuIDsField, r.MenuTable, r.MenuIDField)
	}
	if schema.Department.Enabled() {
		names = append(names, schema.Department.DepartmentTable, schema.Department.DepartmentIDField)
	}

	for _, name := range names {
		if !config.IsIdentifier(name) {
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}

// render turns every template of dir into a goose Go migration. The version
// is the numeric prefix of the file name. Templates rendering no statement
// are left out so that enabling roles or departments later still creates
// their tables.
func render(dir string, data templateData) ([]*goose.Migration, error) {
	files, err := fs.Glob(embedMigrations, dir+"/*.sql")
	if err != nil {
		return nil, err
	}

	migrations := make([]*goose.Migration, 0, len(files))
	for _, file := range files {
		version, err := goose.NumericComponent(file)
		if err != nil {
			return nil, err
		}

		tmpl, err := template.ParseFS(embedMigrations, file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}

		var buf bytes.Buffer
		if err = tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", path.Base(file), err)
		}

		up, down, err := splitSections(buf.String())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path.Base(file), err)
		}
		if len(up) == 0 {
			// optional tables not configured; applied once they are
			continue
		}

		migrations = append(migrations, goose.NewGoMigration(version,
			&goose.GoFunc{RunTx: execAll(up)},
			&goose.GoFunc{RunTx: execAll(down)},
		))
	}

	return migrations, nil
}

// splitSections returns the statements under the Up and Down markers.
func splitSections(sqlText string) (up, down []string, err error) {
	upAt := strings.Index(sqlText, upMarker)
	downAt := strings.Index(sqlText, downMarker)
	if upAt < 0 || downAt < upAt {
		return nil, nil, errors.New("missing goose Up/Down markers")
	}

	return statements(sqlText[upAt+len(upMarker) : downAt]), statements(sqlText[downAt+len(downMarker):]), nil
}

func statements(section string) []string {
	var out []string
	for _, stmt := range strings.Split(section, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

func execAll(stmts []string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%w: %s", err, stmt)
			}
		}
		return nil
	}
}
