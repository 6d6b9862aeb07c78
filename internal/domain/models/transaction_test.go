package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFromProviderCode(t *testing.T) {
	cases := map[string]TransactionStatus{
		"PAYMENT_SUCCESS":  StatusSuccess,
		"PAYMENT_PENDING":  StatusPending,
		"PAYMENT_ERROR":    StatusFailed,
		"PAYMENT_DECLINED": StatusFailed,
		"":                 StatusFailed,
		"payment_success":  StatusFailed,
		"\x00garbage":      StatusFailed,
	}
	for code, want := range cases {
		assert.Equal(t, want, StatusFromProviderCode(code), code)
		assert.Equal(t, want, StatusFromProviderCode(code), "mapping is deterministic for %q", code)
	}
}

func TestCanTransition(t *testing.T) {
	all := []TransactionStatus{StatusPending, StatusSuccess, StatusFailed}
	for _, next := range all {
		assert.True(t, StatusPending.CanTransition(next), "PENDING -> %s", next)
	}

	assert.True(t, StatusSuccess.CanTransition(StatusSuccess))
	assert.False(t, StatusSuccess.CanTransition(StatusPending))
	assert.False(t, StatusSuccess.CanTransition(StatusFailed))
	assert.True(t, StatusFailed.CanTransition(StatusFailed))
	assert.False(t, StatusFailed.CanTransition(StatusPending))
	assert.False(t, StatusFailed.CanTransition(StatusSuccess))

	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSuccess.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestTransactionUpdate(t *testing.T) {
	var empty TransactionUpdate
	assert.True(t, empty.IsEmpty())

	u := empty.WithStatus(StatusSuccess).WithProviderTransactionID("T1")
	assert.True(t, empty.IsEmpty(), "builders do not modify the receiver")
	assert.False(t, u.IsEmpty())
	assert.Equal(t, StatusSuccess, *u.Status)
	assert.Equal(t, "T1", *u.ProviderTransactionID)
	assert.Nil(t, u.ResponseData)
}
