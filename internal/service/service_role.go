package service

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/models"
)

type roleResolver struct {
	roleRepository store.RoleRepository
	menuIDsField   string
	logger         *logger.Logger
}

// NewRoleResolver returns a resolver over roleRepository. A nil repository
// disables role lookup.
func NewRoleResolver(roleRepository store.RoleRepository, schema config.RoleSchema, logger *logger.Logger) RoleResolver {
	return &roleResolver{
		roleRepository: roleRepository,
		menuIDsField:   schema.MenuIDsField,
		logger:         logger,
	}
}

// Resolve reads the role row and the menus it references. Lookup failures
// are logged and never fail the login.
func (r *roleResolver) Resolve(ctx context.Context, roleID int64) *models.RoleInfo {
	if r.roleRepository == nil {
		return nil
	}
	log := logger.FromContext(ctx)

	role, err := r.roleRepository.GetRole(ctx, roleID)
	if err != nil {
		log.Warn().Err(err).Str("func", "*roleResolver.Resolve").Int64("role_id", roleID).Msg("role lookup failed")
		return nil
	}

	menuIDs := parseMenuIDs(role[r.menuIDsField])
	menus, err := r.roleRepository.ListMenus(ctx, menuIDs)
	if err != nil {
		log.Warn().Err(err).Str("func", "*roleResolver.Resolve").Int64("role_id", roleID).Msg("menu lookup failed")
		return nil
	}

	return &models.RoleInfo{
		RoleID:   roleID,
		MenuIDs:  menuIDs,
		MenuList: menus,
	}
}

// parseMenuIDs accepts JSON text, raw bytes or a decoded list. Malformed
// input yields an empty list.
func parseMenuIDs(v any) []int64 {
	switch t := v.(type) {
	case []int64:
		return t
	case []byte:
		return parseMenuIDs(string(t))
	case string:
		var raw []any
		if err := json.Unmarshal([]byte(t), &raw); err != nil {
			return []int64{}
		}
		return parseMenuIDs(raw)
	case []any:
		ids := make([]int64, 0, len(t))
		for _, item := range t {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int64(n))
			case int64:
				ids = append(ids, n)
			case int:
				ids = append(ids, int64(n))
			case string:
				if id, err := strconv.ParseInt(n, 10, 64); err == nil {
					ids = append(ids, id)
				}
			}
		}
		return ids
	default:
		return []int64{}
	}
}
