package family

import (
	"testing"
	"time"

	"famledger/internal/model"
)

func TestPeriodStart(t *testing.T) {
	// Wednesday, March 18 2026.
	now := time.Date(2026, 3, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		period string
		want   time.Time
	}{
		{model.PeriodWeekly, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)}, // previous Sunday
		{model.PeriodMonthly, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{model.PeriodYearly, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"BOGUS", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}, // monthly fallback
	}
	for _, tt := range tests {
		if got := PeriodStart(tt.period, now); !got.Equal(tt.want) {
			t.Errorf("PeriodStart(%s) = %v, want %v", tt.period, got, tt.want)
		}
	}
}

func TestPeriodStartOnSunday(t *testing.T) {
	// Sunday itself starts the weekly period.
	sunday := time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(model.PeriodWeekly, sunday); !got.Equal(want) {
		t.Errorf("PeriodStart(WEEKLY) on Sunday = %v, want %v", got, want)
	}
}

func TestPeriodStartWeeklyCrossesMonth(t *testing.T) {
	// Tuesday, April 1 2026: the previous Sunday is March 29.
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC)
	if got := PeriodStart(model.PeriodWeekly, now); !got.Equal(want) {
		t.Errorf("PeriodStart(WEEKLY) = %v, want %v", got, want)
	}
}
