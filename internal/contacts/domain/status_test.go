package domain

import "testing"

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusInProgress, StatusClosed} {
		if !s.Valid() {
			t.Fatalf("%q must be valid", s)
		}
	}
	for _, s := range []Status{"", "open", "NEW", "done"} {
		if s.Valid() {
			t.Fatalf("%q must not be valid", s)
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusInProgress, true},
		{StatusNew, StatusClosed, true},
		{StatusInProgress, StatusClosed, true},

		// repeats and backward moves
		{StatusNew, StatusNew, false},
		{StatusInProgress, StatusInProgress, false},
		{StatusInProgress, StatusNew, false},
		{StatusClosed, StatusClosed, false},
		{StatusClosed, StatusNew, false},
		{StatusClosed, StatusInProgress, false},

		// unknown statuses
		{"open", StatusClosed, false},
		{StatusNew, "done", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !StatusClosed.Terminal() {
		t.Fatal("closed must be terminal")
	}
	if StatusNew.Terminal() || StatusInProgress.Terminal() {
		t.Fatal("new and in_progress must not be terminal")
	}
}
