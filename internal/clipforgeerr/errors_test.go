package clipforgeerr

import (
	"errors"
	"testing"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil success", nil, 0},
		{"config error", New(Config, "config", errors.New("bad flag")), 3},
		{"health error", New(Health, "health_check", errors.New("unreachable")), 4},
		{"cancelled", New(Cancelled, "ingest", errors.New("context canceled")), 2},
		{"unrecoverable default", New(Ingest, "ingest", errors.New("boom")), 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExitCode(tc.err); got != tc.want {
				t.Errorf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRenderExitCode(t *testing.T) {
	cases := []struct {
		name     string
		planned  int
		rendered int
		want     int
	}{
		{"nothing planned", 0, 0, 0},
		{"all rendered", 5, 5, 0},
		{"some failed", 5, 3, 1},
		{"all failed", 5, 0, 2},
		{"one planned one rendered", 1, 1, 0},
		{"one planned none rendered", 1, 0, 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderExitCode(tc.planned, tc.rendered); got != tc.want {
				t.Errorf("RenderExitCode(%d, %d) = %d, want %d", tc.planned, tc.rendered, got, tc.want)
			}
		})
	}
}
