package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_IsRefundable(t *testing.T) {
	tests := []struct {
		status TransactionStatus
		want   bool
	}{
		{TransactionStatusCompleted, true},
		{TransactionStatusPending, false},
		{TransactionStatusFailed, false},
		{TransactionStatusRefunded, false},
		{TransactionStatusCancelled, false},
	}

	for _, tt := range tests {
		txn := &Transaction{Status: tt.status}
		assert.Equal(t, tt.want, txn.IsRefundable(), "status %s", tt.status)
	}
}

func TestTransaction_IsTerminal(t *testing.T) {
	terminal := []TransactionStatus{
		TransactionStatusRefunded,
		TransactionStatusFailed,
		TransactionStatusCancelled,
	}
	for _, s := range terminal {
		txn := &Transaction{Status: s}
		assert.True(t, txn.IsTerminal(), "status %s should be terminal", s)
	}

	assert.False(t, (&Transaction{Status: TransactionStatusPending}).IsTerminal())
	assert.False(t, (&Transaction{Status: TransactionStatusCompleted}).IsTerminal())
}

func TestRefund_StatusHelpers(t *testing.T) {
	r := &Refund{Status: RefundStatusPending}
	assert.True(t, r.IsPending())
	assert.False(t, r.IsTerminal())

	for _, s := range []RefundStatus{RefundStatusApproved, RefundStatusRejected} {
		r := &Refund{Status: s}
		assert.False(t, r.IsPending())
		assert.True(t, r.IsTerminal())
	}
}

func TestStaff_CanLogin(t *testing.T) {
	active := &Staff{Active: true, Role: StaffRoleSupport}
	assert.True(t, active.CanLogin())
	assert.False(t, active.IsAdmin())

	deactivated := &Staff{Active: false, Role: StaffRoleAdmin}
	assert.False(t, deactivated.CanLogin())
	assert.True(t, deactivated.IsAdmin())
}

func TestUser_FullName(t *testing.T) {
	u := &User{FirstName: "Amina", LastName: "Benali"}
	assert.Equal(t, "Amina Benali", u.FullName())
}
