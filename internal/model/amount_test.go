package model

import (
	"math/big"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"1.5", 18, "1500000000000000000", false},
		{"0.000001", 6, "1", false},
		{"42", 0, "42", false},
		{"0", 18, "0", false},
		{"1.2345678", 6, "", true},
		{"-1", 18, "", true},
		{"abc", 18, "", true},
	}

	for _, tc := range cases {
		got, err := ParseAmount(tc.in, tc.decimals)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseAmount(%q, %d): expected error", tc.in, tc.decimals)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseAmount(%q, %d): %v", tc.in, tc.decimals, err)
		}
		want, _ := new(big.Int).SetString(tc.want, 10)
		if got.Cmp(want) != 0 {
			t.Fatalf("ParseAmount(%q, %d) = %s, want %s", tc.in, tc.decimals, got, tc.want)
		}
	}
}

func TestFormatAmountRoundTrip(t *testing.T) {
	raw, _ := ParseAmount("1.25", 18)
	if got := FormatAmount(raw, 18); got != "1.25" {
		t.Fatalf("FormatAmount = %q, want 1.25", got)
	}
	if got := FormatAmount(big.NewInt(3_125_000), 6); got != "3.125" {
		t.Fatalf("FormatAmount = %q, want 3.125", got)
	}
	if got := FormatAmount(nil, 6); got != "0" {
		t.Fatalf("FormatAmount(nil) = %q, want 0", got)
	}
}
