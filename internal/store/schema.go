package store

import (
	"fmt"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
)

// Schema is the validated table and column mapping of the user store.
// It is built once by [NewSchema]; repository queries never read column
// names from anywhere else.
type Schema struct {
	Table  string
	Fields config.FieldNames
}

// NewSchema validates the user table and every mapped column name.
// Empty fields fall back to [config.DefaultFieldNames].
func NewSchema(cfg config.Schema) (Schema, error) {
	fields := withDefaultFields(cfg.Fields)

	if err := validateIdentifier("user table", cfg.UserTable); err != nil {
		return Schema{}, err
	}

	seen := make(map[string]string)
	for attr, column := range fieldMap(fields) {
		if err := validateIdentifier(attr, column); err != nil {
			return Schema{}, err
		}
		if other, dup := seen[column]; dup {
			return Schema{}, fmt.Errorf("%w: column %q mapped to both %s and %s", ErrInvalidSchema, column, other, attr)
		}
		seen[column] = attr
	}

	return Schema{Table: cfg.UserTable, Fields: fields}, nil
}

// columns lists the user columns in scan order (see scanUser).
func (s Schema) columns() []string {
	f := s.Fields
	return []string{
		f.ID, f.Username, f.Password, f.Email, f.Phone, f.Nickname, f.Name,
		f.RoleID, f.DepartmentIDs, f.IsDisabled, f.IsDeleted,
		f.WxWebOpenID, f.WxMiniOpenID, f.CreatedAt, f.UpdatedAt,
	}
}

func validateIdentifier(what, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidSchema, what)
	}
	if !config.IsIdentifier(name) {
		return fmt.Errorf("%w: %s %q is not a valid identifier", ErrInvalidSchema, what, name)
	}
	return nil
}

func withDefaultFields(f config.FieldNames) config.FieldNames {
	d := config.DefaultFieldNames()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return config.FieldNames{
		ID:            pick(f.ID, d.ID),
		Username:      pick(f.Username, d.Username),
		Password:      pick(f.Password, d.Password),
		Email:         pick(f.Email, d.Email),
		Phone:         pick(f.Phone, d.Phone),
		Nickname:      pick(f.Nickname, d.Nickname),
		Name:          pick(f.Name, d.Name),
		RoleID:        pick(f.RoleID, d.RoleID),
		DepartmentIDs: pick(f.DepartmentIDs, d.DepartmentIDs),
		IsDisabled:    pick(f.IsDisabled, d.IsDisabled),
		IsDeleted:     pick(f.IsDeleted, d.IsDeleted),
		CreatedAt:     pick(f.CreatedAt, d.CreatedAt),
		UpdatedAt:     pick(f.UpdatedAt, d.UpdatedAt),
		WxWebOpenID:   pick(f.WxWebOpenID, d.WxWebOpenID),
		WxMiniOpenID:  pick(f.WxMiniOpenID, d.WxMiniOpenID),
	}
}

func fieldMap(f config.FieldNames) map[string]string {
	return map[string]string{
		"id":             f.ID,
		"username":       f.Username,
		"password":       f.Password,
		"email":          f.Email,
		"phone":          f.Phone,
		"nickname":       f.Nickname,
		"name":           f.Name,
		"role_id":        f.RoleID,
		"department_ids": f.DepartmentIDs,
		"is_disabled":    f.IsDisabled,
		"is_deleted":     f.IsDeleted,
		"created_at":     f.CreatedAt,
		"updated_at":     f.UpdatedAt,
		"wx_web_openid":  f.WxWebOpenID,
		"wx_mini_openid": f.WxMiniOpenID,
	}
}
