package util

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "12.50", want: "12.5"},
		{name: "integer", input: "7", want: "7"},
		{name: "thousands comma", input: "1,250.75", want: "1250.75"},
		{name: "thousands dot", input: "1.250,75", want: "1250.75"},
		{name: "decimal comma", input: "3,5", want: "3.5"},
		{name: "currency code", input: "PHP 1,000.00", want: "1000"},
		{name: "peso sign", input: "₱450", want: "450"},
		{name: "nbsp", input: "\u00a099.90 ", want: "99.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAmount(tc.input)
			if !got.Valid {
				t.Fatalf("amount not parsed")
			}
			if got.Decimal.String() != tc.want {
				t.Fatalf("got %s want %s", got.Decimal.String(), tc.want)
			}
		})
	}
}

func TestParseAmountInvalid(t *testing.T) {
	for _, input := range []string{"", "  ", "bad", "12.5.6", "PHP", "1,2,3"} {
		if got := ParseAmount(input); got.Valid {
			t.Fatalf("ParseAmount(%q) = %s, want invalid", input, got.Decimal)
		}
	}
}
