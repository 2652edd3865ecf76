package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskingPolicyHidesAdminNames(t *testing.T) {
	policy := NewMaskingPolicy("Customer Care")

	assert.Equal(t, "Customer Care", policy.DisplayName(true, "Budi"))
	assert.Equal(t, "Customer Care", policy.DisplayName(true, "Sari"))
	assert.Equal(t, "Customer Care", policy.DisplayName(true, ""))
}

func TestMaskingPolicyPassesSellerNamesThrough(t *testing.T) {
	policy := NewMaskingPolicy("Customer Care")

	assert.Equal(t, "Toko Jaya", policy.DisplayName(false, "Toko Jaya"))
	assert.Equal(t, "", policy.DisplayName(false, ""))
}

func TestMaskingPolicyIsIdempotent(t *testing.T) {
	policy := NewMaskingPolicy("Customer Care")

	once := policy.DisplayName(true, "Budi")
	twice := policy.DisplayName(true, once)
	assert.Equal(t, once, twice)
}
