package i18n

import (
	"testing"
	"time"

	"github.com/cwarden/gridcal/internal/layout"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  Locale
	}{
		{"en", English},
		{"en-US", English},
		{"zh", Chinese},
		{"zh-CN", Chinese},
		{"zh-Hans", Chinese},
		{"", English},
		{"not a tag!", English},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Resolve(tt.input); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSuffix(t *testing.T) {
	tests := []struct {
		locale Locale
		pos    layout.Position
		want   string
	}{
		{English, layout.PositionStart, " (continues...)"},
		{English, layout.PositionEnd, " (...ends)"},
		{English, layout.PositionMiddle, " (...continues...)"},
		{English, layout.PositionFull, ""},
		{Chinese, layout.PositionStart, " (继续...)"},
		{Chinese, layout.PositionEnd, " (...结束)"},
		{Chinese, layout.PositionMiddle, " (...继续...)"},
	}

	for _, tt := range tests {
		if got := For(tt.locale).Suffix(tt.pos); got != tt.want {
			t.Errorf("%s/%s: got %q, want %q", tt.locale, tt.pos, got, tt.want)
		}
	}
}

func TestNames(t *testing.T) {
	en := For(English)
	if got := en.Weekday(time.Wednesday); got != "Wed" {
		t.Errorf("weekday mismatch: got %q", got)
	}
	if got := en.Month(time.December); got != "December" {
		t.Errorf("month mismatch: got %q", got)
	}
	if got := For(Locale("fr")).Delete; got != "Delete" {
		t.Errorf("fallback mismatch: got %q", got)
	}
	if got := For(Chinese).Bookmark; got != "书签" {
		t.Errorf("zh bookmark mismatch: got %q", got)
	}
}
