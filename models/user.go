// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// User represents an account record as stored by the user repository.
// Credential-related data is never serialized.
type User struct {
	// ID is assigned by the repository and never changes.
	ID int64 `json:"id"`

	Username string `json:"username,omitempty"`

	// PasswordHash is nil for identities without a password
	// (e.g. accounts created through WeChat).
	PasswordHash *string `json:"-"`

	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Name     string `json:"name,omitempty"`

	RoleID        *int64  `json:"role_id,omitempty"`
	DepartmentIDs []int64 `json:"department_ids,omitempty"`

	IsDisabled bool `json:"is_disabled"`
	IsDeleted  bool `json:"is_deleted,omitempty"`

	WxWebOpenID  string `json:"wx_web_openid,omitempty"`
	WxMiniOpenID string `json:"wx_mini_openid,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// RoleInfo is attached at login time and lives only in the session snapshot.
	RoleInfo *RoleInfo `json:"role_info,omitempty"`

	// CurrentDepartmentID is set on the session snapshot by SetCurrentDepartment.
	CurrentDepartmentID *int64 `json:"current_department_id,omitempty"`
}

// HasPassword reports whether a password hash is stored for the user.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// BelongsToDepartment reports whether departmentID is one of the user's departments.
func (u User) BelongsToDepartment(departmentID int64) bool {
	for _, id := range u.DepartmentIDs {
		if id == departmentID {
			return true
		}
	}
	return false
}

// UserInput carries the attributes of a user to be created.
// Password is plain text; the repository hashes it before storage.
type UserInput struct {
	Username      string  `json:"username,omitempty"`
	Password      string  `json:"password,omitempty"`
	Phone         string  `json:"phone,omitempty"`
	Email         string  `json:"email,omitempty"`
	Nickname      string  `json:"nickname,omitempty"`
	Name          string  `json:"name,omitempty"`
	RoleID        *int64  `json:"role_id,omitempty"`
	DepartmentIDs []int64 `json:"department_ids,omitempty"`
	IsDisabled    bool    `json:"is_disabled,omitempty"`
	WxWebOpenID   string  `json:"wx_web_openid,omitempty"`
	WxMiniOpenID  string  `json:"wx_mini_openid,omitempty"`
}

// HasIdentifier reports whether at least one identifying attribute is set.
func (in UserInput) HasIdentifier() bool {
	return in.Username != "" || in.Phone != "" || in.Email != "" ||
		in.WxWebOpenID != "" || in.WxMiniOpenID != ""
}

// UserPatch is a partial update of a user. Only non-nil fields are applied.
type UserPatch struct {
	Username      *string  `json:"username,omitempty"`
	Password      *string  `json:"password,omitempty"`
	Phone         *string  `json:"phone,omitempty"`
	Email         *string  `json:"email,omitempty"`
	Nickname      *string  `json:"nickname,omitempty"`
	Name          *string  `json:"name,omitempty"`
	RoleID        *int64   `json:"role_id,omitempty"`
	DepartmentIDs *[]int64 `json:"department_ids,omitempty"`
	IsDisabled    *bool    `json:"is_disabled,omitempty"`
	WxWebOpenID   *string  `json:"wx_web_openid,omitempty"`
	WxMiniOpenID  *string  `json:"wx_mini_openid,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Password == nil && p.Phone == nil && p.Email == nil &&
		p.Nickname == nil && p.Name == nil && p.RoleID == nil && p.DepartmentIDs == nil &&
		p.IsDisabled == nil && p.WxWebOpenID == nil && p.WxMiniOpenID == nil
}
