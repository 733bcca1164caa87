package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"+251911223344", true},
		{"0911223344", true},
		{"0911 22 33 44", true},
		{"(011) 123-4567", true},
		{"  +251911223344  ", true},
		{"12345", false},
		{"", false},
		{"phone me", false},
		{"+2519112233445566", false}, // too long
	}
	for _, c := range cases {
		if got := ValidatePhoneNumber(c.in); got != c.want {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+251 911 22-33-44", "+251911223344"},
		{"0911 22 33 44", "0911223344"},
		{"(011) 123-4567", "0111234567"},
	}
	for _, c := range cases {
		if got := NormalizePhoneNumber(c.in); got != c.want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
