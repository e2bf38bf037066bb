package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypeVoucherSubmitted, true},
		{"supervisor approved", TypeVoucherSupervisorApproved, true},
		{"approved", TypeVoucherApproved, true},
		{"rejected", TypeVoucherRejected, true},
		{"reopened", TypeVoucherReopened, true},
		{"unknown", Type("voucher.archived"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeVoucherSubmitted, 42, "claimant-1", "claimant-1", map[string]interface{}{
		"tier": 2,
	})

	require.NotNil(t, evt)
	assert.NotEmpty(t, evt.ID)
	assert.NotEmpty(t, evt.CorrelationID)
	assert.NotEqual(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, int64(42), evt.VoucherID)
	assert.Equal(t, "claimant-1", evt.ClaimantID)
	assert.Equal(t, int64(2), evt.GetPayloadInt("tier"))
	assert.False(t, evt.Timestamp.IsZero())
}

func TestNewEvent_NilPayload(t *testing.T) {
	evt := NewEvent(TypeVoucherApproved, 1, "c", "a", nil)
	assert.NotNil(t, evt.Payload)
	assert.Equal(t, "", evt.GetPayloadString("missing"))
}

func TestEvent_WithPayloadIsImmutable(t *testing.T) {
	original := NewEvent(TypeVoucherRejected, 7, "c", "a", map[string]interface{}{"reason": "late"})
	updated := original.WithPayload("note", "resubmit")

	assert.Equal(t, "resubmit", updated.GetPayloadString("note"))
	assert.Equal(t, "late", updated.GetPayloadString("reason"))
	assert.Empty(t, original.GetPayloadString("note"))
	assert.Equal(t, original.ID, updated.ID)
}

func TestEvent_CorrelationChain(t *testing.T) {
	first := NewEvent(TypeVoucherSubmitted, 1, "c", "c", nil)
	next := NewEventWithCorrelation(TypeVoucherSupervisorApproved, 1, "c", "s", nil, first.CorrelationID)

	assert.Equal(t, first.CorrelationID, next.CorrelationID)
	assert.NotEqual(t, first.ID, next.ID)
}
