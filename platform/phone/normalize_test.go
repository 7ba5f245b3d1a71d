package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"+7 912 345-67-89", "+79123456789"},
		{"8 (912) 345-67-89", "+79123456789"},
		{"89123456789", "+79123456789"},
		{"+31 6 12345678", "+31612345678"},
		// unparseable and invalid inputs pass through trimmed
		{"not a number", "not a number"},
		{"  123  ", "123"},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
