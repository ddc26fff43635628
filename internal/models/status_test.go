package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusApproved},
		{StatusPending, StatusDisabled},
		{StatusApproved, StatusDisabled},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	blocked := []struct {
		from, to Status
	}{
		{StatusApproved, StatusPending},
		{StatusDisabled, StatusPending},
		{StatusDisabled, StatusApproved},
		{StatusPending, StatusPending},
	}
	for _, tc := range blocked {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be blocked", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusApproved.Valid())
	assert.True(t, StatusDisabled.Valid())
	assert.False(t, Status("Frozen").Valid())
}
