package statement

import (
	"testing"

	"estratto/internal/core"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name       string
		date       core.Date
		closingDay int
		want       Period
	}{
		{"before closing day", core.NewDate(2025, 3, 10), 25, "2025-03"},
		{"day before closing", core.NewDate(2025, 3, 24), 25, "2025-03"},
		{"on closing day rolls forward", core.NewDate(2025, 3, 25), 25, "2025-04"},
		{"after closing day", core.NewDate(2025, 3, 28), 25, "2025-04"},
		{"december rollover", core.NewDate(2025, 12, 28), 25, "2026-01"},
		{"december before closing", core.NewDate(2025, 12, 24), 25, "2025-12"},
		{"closing day one keeps own month", core.NewDate(2025, 3, 5), 1, "2025-03"},
		{"closing day one first of month", core.NewDate(2025, 3, 1), 1, "2025-03"},
		{"invalid closing day treated as one", core.NewDate(2025, 3, 15), 0, "2025-03"},
		{"closing day above range treated as one", core.NewDate(2025, 3, 15), 40, "2025-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.date, tt.closingDay); got != tt.want {
				t.Errorf("PeriodOf(%s, %d) = %s, want %s", tt.date, tt.closingDay, got, tt.want)
			}
		})
	}
}

func TestCloseDate(t *testing.T) {
	tests := []struct {
		name       string
		period     Period
		closingDay int
		want       core.Date
	}{
		{"plain", "2025-03", 25, core.NewDate(2025, 3, 25)},
		{"clamped to february", "2025-02", 31, core.NewDate(2025, 2, 28)},
		{"leap february", "2024-02", 31, core.NewDate(2024, 2, 29)},
		{"thirty day month", "2025-04", 31, core.NewDate(2025, 4, 30)},
		{"closing day one", "2025-03", 1, core.NewDate(2025, 3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.period.CloseDate(tt.closingDay)
			if !got.Equal(tt.want.Time) {
				t.Errorf("CloseDate(%d) on %s = %s, want %s", tt.closingDay, tt.period, got, tt.want)
			}
		})
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		period Period
		n      int
		want   Period
	}{
		{"2025-03", 1, "2025-04"},
		{"2025-12", 1, "2026-01"},
		{"2025-01", -1, "2024-12"},
		{"2025-06", 0, "2025-06"},
		{"2025-06", 7, "2026-01"},
	}

	for _, tt := range tests {
		if got := tt.period.AddMonths(tt.n); got != tt.want {
			t.Errorf("%s.AddMonths(%d) = %s, want %s", tt.period, tt.n, got, tt.want)
		}
	}
}

func TestRepresentativeDate(t *testing.T) {
	tests := []struct {
		name       string
		period     Period
		closingDay int
		want       core.Date
	}{
		{"high closing day uses fifteenth", "2025-03", 25, core.NewDate(2025, 3, 15)},
		{"low closing day uses day before", "2025-03", 10, core.NewDate(2025, 3, 9)},
		{"closing day two", "2025-03", 2, core.NewDate(2025, 3, 1)},
		{"closing day one uses fifteenth", "2025-03", 1, core.NewDate(2025, 3, 15)},
		{"january with closing day one", "2026-01", 1, core.NewDate(2026, 1, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.period.RepresentativeDate(tt.closingDay)
			if !got.Equal(tt.want.Time) {
				t.Errorf("RepresentativeDate(%d) on %s = %s, want %s", tt.closingDay, tt.period, got, tt.want)
			}
		})
	}
}

// A representative date must classify back into the period it was derived
// from, for any closing day.
func TestRepresentativeDateRoundTrip(t *testing.T) {
	periods := []Period{"2024-02", "2025-01", "2025-06", "2025-12", "2026-01"}
	for closingDay := 1; closingDay <= 31; closingDay++ {
		for _, p := range periods {
			d := p.RepresentativeDate(closingDay)
			if got := PeriodOf(d, closingDay); got != p {
				t.Errorf("closing day %d: RepresentativeDate of %s = %s classifies into %s",
					closingDay, p, d, got)
			}
		}
	}
}
