package models

// RoleInfo is the role snapshot attached to a user at login.
// It is informational only; no permission checks are derived from it.
type RoleInfo struct {
	RoleID   int64            `json:"role_id"`
	MenuIDs  []int64          `json:"menu_ids"`
	MenuList []map[string]any `json:"menu_list"`
}
