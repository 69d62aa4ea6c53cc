package money

import (
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{
			name:  "grouped amount",
			input: "290.000.000",
			want:  290000000,
		},
		{
			name:  "grouped amount with decimal remainder",
			input: "500.000.00",
			want:  500000,
		},
		{
			name:  "comma grouping",
			input: "1,050,000",
			want:  1050000,
		},
		{
			name:  "single decimal digit remainder",
			input: "120000.0",
			want:  120000,
		},
		{
			name:  "plain digits",
			input: "75000",
			want:  75000,
		},
		{
			name:  "whitespace",
			input: "  1.000  ",
			want:  1000,
		},
		{
			name:  "garbage",
			input: "abc",
			want:  0,
		},
		{
			name:  "mixed garbage",
			input: "12x000",
			want:  0,
		},
		{
			name:  "negative",
			input: "-5000",
			want:  0,
		},
		{
			name:  "empty",
			input: "",
			want:  0,
		},
		{
			name:  "separator only",
			input: ".",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(120000); got != 120000 {
		t.Errorf("Clamp(120000) = %d, want 120000", got)
	}
	if got := Clamp(-1); got != 0 {
		t.Errorf("Clamp(-1) = %d, want 0", got)
	}
	if got := Clamp(0); got != 0 {
		t.Errorf("Clamp(0) = %d, want 0", got)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		input int64
		want  string
	}{
		{0, ""},
		{5, "5"},
		{999, "999"},
		{1000, "1.000"},
		{50000, "50.000"},
		{1050000, "1.050.000"},
		{290000000, "290.000.000"},
	}

	for _, tt := range tests {
		if got := Format(tt.input); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeFormatRoundTrip(t *testing.T) {
	for _, v := range []int64{1, 999, 1000, 75000, 1050000, 290000000} {
		if got := Sanitize(Format(v)); got != v {
			t.Errorf("Sanitize(Format(%d)) = %d", v, got)
		}
	}
}
