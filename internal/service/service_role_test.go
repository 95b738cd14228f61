package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/mock"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
)

func TestParseMenuIDs(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []int64
	}{
		{name: "json text", in: "[1, 2, 3]", want: []int64{1, 2, 3}},
		{name: "json bytes", in: []byte("[4]"), want: []int64{4}},
		{name: "decoded list", in: []any{float64(5), "6", int64(7)}, want: []int64{5, 6, 7}},
		{name: "int64 list", in: []int64{8}, want: []int64{8}},
		{name: "malformed", in: "1,2", want: []int64{}},
		{name: "nil", in: nil, want: []int64{}},
		{name: "unexpected type", in: 42, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMenuIDs(tt.in))
		})
	}
}

func TestRoleResolver_Disabled(t *testing.T) {
	r := NewRoleResolver(nil, config.RoleSchema{}, logger.Nop())

	assert.Nil(t, r.Resolve(context.Background(), 1))
}

func TestRoleResolver_Resolve(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRoleRepository(ctrl)
	r := NewRoleResolver(repo, config.RoleSchema{MenuIDsField: "menus"}, logger.Nop())

	menus := []map[string]any{{"id": int64(3)}}
	repo.EXPECT().GetRole(gomock.Any(), int64(1)).Return(map[string]any{"menus": "[3]"}, nil)
	repo.EXPECT().ListMenus(gomock.Any(), []int64{3}).Return(menus, nil)

	info := r.Resolve(context.Background(), 1)

	if assert.NotNil(t, info) {
		assert.Equal(t, int64(1), info.RoleID)
		assert.Equal(t, []int64{3}, info.MenuIDs)
		assert.Equal(t, menus, info.MenuList)
	}
}

func TestRoleResolver_Failures(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mock.NewMockRoleRepository(ctrl)
	r := NewRoleResolver(repo, config.RoleSchema{MenuIDsField: "menus"}, logger.Nop())

	repo.EXPECT().GetRole(gomock.Any(), int64(1)).Return(nil, store.ErrRoleNotFound)
	assert.Nil(t, r.Resolve(context.Background(), 1))

	repo.EXPECT().GetRole(gomock.Any(), int64(2)).Return(map[string]any{"menus": "[3]"}, nil)
	repo.EXPECT().ListMenus(gomock.Any(), []int64{3}).Return(nil, store.ErrExecutingQuery)
	assert.Nil(t, r.Resolve(context.Background(), 2))
}
