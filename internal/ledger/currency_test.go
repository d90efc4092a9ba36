package ledger

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount string
		symbol string
		want   string
	}{
		{"1234.5", "", "$1,234.50"},
		{"0", "$", "$0.00"},
		{"-42.126", "€", "-€42.13"},
		{"1000000", "£", "£1,000,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatCurrency(dec(tt.amount), tt.symbol); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
