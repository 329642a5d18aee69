package actions

import "testing"

func TestToKebab(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"logLevel", "log-level"},
		{"LogLevel", "log-level"},
		{"log_level", "log-level"},
		{"log__level", "log-level"},
		{"HTTPServer", "http-server"},
		{"already-kebab", "already-kebab"},
		{"v", "v"},
		{"maxRetries2", "max-retries2"},
	}
	for _, tc := range cases {
		if got := ToKebab(tc.in); got != tc.want {
			t.Errorf("ToKebab(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestToCamel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"log-level", "logLevel"},
		{"log_level", "logLevel"},
		{"Log-Level", "logLevel"},
		{"single", "single"},
		{"a-b-c", "aBC"},
	}
	for _, tc := range cases {
		if got := ToCamel(tc.in); got != tc.want {
			t.Errorf("ToCamel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
