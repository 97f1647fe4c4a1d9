package db

import "testing"

func TestCommandOf(t *testing.T) {
	cases := map[string]string{
		"select id from tasks":  "SELECT",
		"INSERT INTO assignees": "INSERT",
		"VACUUM":                "VACUUM",
		"":                      "UNKNOWN",
	}
	for in, want := range cases {
		if got := commandOf(in); got != want {
			t.Errorf("commandOf(%q) = %q, want %q", in, got, want)
		}
	}
}
