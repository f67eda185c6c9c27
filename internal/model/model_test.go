package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDecideAdmission(t *testing.T) {
	tests := []struct {
		name           string
		max            *int
		confirmedCount int
		want           Admission
	}{
		{"unlimited always confirms", nil, 0, AdmissionConfirm},
		{"unlimited confirms at any count", nil, 1_000_000, AdmissionConfirm},
		{"seat available", intPtr(10), 9, AdmissionConfirm},
		{"first registrant", intPtr(1), 0, AdmissionConfirm},
		{"exactly full", intPtr(10), 10, AdmissionWaitlist},
		{"over capacity", intPtr(10), 11, AdmissionWaitlist},
		{"single seat taken", intPtr(1), 1, AdmissionWaitlist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecideAdmission(tt.max, tt.confirmedCount))
		})
	}
}

func TestEventHasOccurred(t *testing.T) {
	now := time.Now()

	future := Event{ScheduledAt: now.Add(time.Hour)}
	assert.False(t, future.HasOccurred(now))

	past := Event{ScheduledAt: now.Add(-time.Hour)}
	assert.True(t, past.HasOccurred(now))

	// An event starting exactly now is no longer open for registration.
	exact := Event{ScheduledAt: now}
	assert.True(t, exact.HasOccurred(now))
}

func TestEventUnlimited(t *testing.T) {
	assert.True(t, (&Event{}).Unlimited())
	assert.False(t, (&Event{MaxParticipants: intPtr(5)}).Unlimited())
}

func TestNotificationEventLink(t *testing.T) {
	eventID := int64(42)
	withEvent := Notification{EventID: &eventID}
	assert.Equal(t, "/events/42", withEvent.EventLink())

	withoutEvent := Notification{}
	assert.Equal(t, "", withoutEvent.EventLink())
}
