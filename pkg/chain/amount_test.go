package chain

import (
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		amount string
		want   string // base units
	}{
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{"100.25", "100250000000000000000"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.amount)
		if err != nil {
			t.Errorf("ParseAmount(%q) failed: %v", tt.amount, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, amount := range []string{
		"",
		"abc",
		"-1",
		"-0.5",
		"1.0000000000000000001", // 19 decimal places
	} {
		if _, err := ParseAmount(amount); err == nil {
			t.Errorf("ParseAmount(%q) should fail", amount)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatAmount(wei); got != "1.5" {
		t.Errorf("FormatAmount() = %s, want 1.5", got)
	}
	if got := FormatAmount(big.NewInt(0)); got != "0" {
		t.Errorf("FormatAmount(0) = %s, want 0", got)
	}
	if got := FormatAmount(nil); got != "0" {
		t.Errorf("FormatAmount(nil) = %s, want 0", got)
	}
	if got := FormatAmount(big.NewInt(1)); got != "0.000000000000000001" {
		t.Errorf("FormatAmount(1) = %s", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	wei, err := ParseAmount("42.125")
	if err != nil {
		t.Fatalf("ParseAmount() failed: %v", err)
	}
	if got := FormatAmount(wei); got != "42.125" {
		t.Errorf("round trip = %s, want 42.125", got)
	}
}
