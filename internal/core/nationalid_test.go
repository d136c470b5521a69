package core

import "testing"

func TestFormatNationalID(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"", ""},
		{"1", "1"},
		{"12", "12"},
		{"123", "123."},
		{"1234", "123.4"},
		{"12345", "123.45"},
		{"123456", "123.456."},
		{"1234567", "123.456.7"},
		{"12345678", "123.456.78"},
		{"123456789", "123.456.789-"},
		{"1234567890", "123.456.789-0"},
		{"12345678901", "123.456.789-01"},
		{"123456789012345", "123.456.789-01"}, // capped at 11 digits
		{"123.456.789-01", "123.456.789-01"},
		{"abc 123-456 x789/01", "123.456.789-01"},
		{"no digits", ""},
	}
	for _, tc := range cases {
		if got := FormatNationalID(tc.in); got != tc.out {
			t.Fatalf("FormatNationalID(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatNationalIDIdempotent(t *testing.T) {
	digits := "98765432100"
	for n := 0; n <= len(digits); n++ {
		once := FormatNationalID(digits[:n])
		if twice := FormatNationalID(once); twice != once {
			t.Fatalf("prefix %d: %q reformatted to %q", n, once, twice)
		}
	}
}

func TestFormatNationalIDLengthNonDecreasing(t *testing.T) {
	digits := "98765432100"
	prev := -1
	for n := 0; n <= len(digits); n++ {
		l := len(FormatNationalID(digits[:n]))
		if l < prev {
			t.Fatalf("prefix %d: length %d shorter than previous %d", n, l, prev)
		}
		prev = l
	}
}
