package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain decimal", "12.34", "12.34"},
		{"comma decimal", "12,5", "12.5"},
		{"euro symbol and thousands", "€ 1.234,56", "1234.56"},
		{"currency code prefix", "USD 50", "50"},
		{"negative becomes magnitude", "-12,5", "12.5"},
		{"thousands with dot decimal", "1,234.56", "1234.56"},
		{"integer", "7", "7"},
		{"empty", "", "0"},
		{"whitespace only", "   ", "0"},
		{"garbage", "n/a", "0"},
		{"letters only", "boh", "0"},
		{"multiple thousand separators", "1.234.567,89", "1234567.89"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAmount(tt.input)
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
