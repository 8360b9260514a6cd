package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		days  int
		want  time.Time
	}{
		{"weekday span", date(2026, time.January, 5), 2, date(2026, time.January, 7)},   // Mon -> Wed
		{"across weekend", date(2026, time.January, 2), 2, date(2026, time.January, 6)}, // Fri -> Tue
		{"start on saturday", date(2026, time.January, 3), 2, date(2026, time.January, 6)},
		{"start on sunday", date(2026, time.January, 4), 1, date(2026, time.January, 5)},
		{"zero days", date(2026, time.January, 5), 0, date(2026, time.January, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddBusinessDays(tt.start, tt.days))
		})
	}
}

func TestComputeDueDates(t *testing.T) {
	received := date(2026, time.January, 2) // Friday

	ackDue, finalDue := ComputeDueDates(received, 2, 8)

	assert.Equal(t, date(2026, time.January, 6), ackDue)
	assert.Equal(t, received.AddDate(0, 0, 56), finalDue)
}

func TestBreachFlags(t *testing.T) {
	ackDue := date(2026, time.January, 6)
	finalDue := date(2026, time.February, 27)
	acked := date(2026, time.January, 5)
	responded := date(2026, time.February, 20)

	tests := []struct {
		name            string
		acknowledgedAt  *time.Time
		finalResponseAt *time.Time
		now             time.Time
		wantAck         bool
		wantFinal       bool
	}{
		{"before both deadlines", nil, nil, date(2026, time.January, 5), false, false},
		{"ack overdue", nil, nil, date(2026, time.January, 7), true, false},
		{"both overdue", nil, nil, date(2026, time.March, 2), true, true},
		{"acknowledged in time", &acked, nil, date(2026, time.January, 7), false, false},
		{"responded in time", &acked, &responded, date(2026, time.March, 2), false, false},
		{"exactly at deadline", nil, nil, ackDue, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotAck, gotFinal := BreachFlags(ackDue, finalDue, tt.acknowledgedAt, tt.finalResponseAt, tt.now)
			assert.Equal(t, tt.wantAck, gotAck)
			assert.Equal(t, tt.wantFinal, gotFinal)
		})
	}
}

func TestBreachFlagsIdempotent(t *testing.T) {
	now := date(2026, time.March, 2)
	for i := 0; i < 3; i++ {
		ack, final := BreachFlags(date(2026, time.January, 6), date(2026, time.February, 27), nil, nil, now)
		assert.True(t, ack)
		assert.True(t, final)
	}
}
