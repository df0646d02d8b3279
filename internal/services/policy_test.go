package services_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"

	"freshgrocer/internal/domain"
	"freshgrocer/internal/services"
)

func TestPolicy(t *testing.T) {
	farmer := &domain.User{ID: "u-1", Role: domain.RoleFarmer}
	other := &domain.User{ID: "u-2", Role: domain.RoleFarmer}
	customer := &domain.User{ID: "u-3", Role: domain.RoleCustomer}
	noProfile := &domain.User{ID: "u-4"}
	owned := domain.Product{ID: "p", OwnerID: sql.NullString{String: "u-1", Valid: true}}
	orphan := domain.Product{ID: "q"}

	tests := []struct {
		name string
		got  error
		want error
	}{
		{"anonymous needs login", services.RequireFarmer(nil), domain.ErrUnauthenticated},
		{"customer forbidden", services.RequireFarmer(customer), domain.ErrForbidden},
		{"no profile forbidden", services.RequireFarmer(noProfile), domain.ErrForbidden},
		{"farmer allowed", services.RequireFarmer(farmer), nil},
		{"owner allowed", services.RequireOwner(farmer, owned), nil},
		{"other farmer sees not found", services.RequireOwner(other, owned), domain.ErrNotFound},
		{"orphan has no owner", services.RequireOwner(farmer, orphan), domain.ErrNotFound},
		{"customer on owner check", services.RequireOwner(customer, owned), domain.ErrForbidden},
		{"owner cannot buy own listing", services.CanPurchase(farmer, owned), domain.ErrForbidden},
		{"others can buy", services.CanPurchase(other, owned), nil},
		{"anonymous can buy", services.CanPurchase(nil, owned), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == nil {
				assert.NoError(t, tt.got)
				return
			}
			assert.ErrorIs(t, tt.got, tt.want)
		})
	}

	assert.True(t, services.IsFarmer(farmer))
	assert.False(t, services.IsFarmer(customer))
	assert.False(t, services.IsFarmer(nil))
}
