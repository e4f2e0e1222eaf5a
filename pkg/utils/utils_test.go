package utils

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

func TestFormatRoundedUnit(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{-42 * time.Second, "42s"},
		{90 * time.Second, "1m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h"},
		{5*time.Hour + 30*time.Minute, "5h"},
	}

	for _, tt := range tests {
		if got := FormatRoundedUnit(tt.in); got != tt.want {
			t.Errorf("FormatRoundedUnit(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"game.exe", 30, "game.exe"},
		{"a-very-long-process-name.exe", 10, "a-very-..."},
		{"abcdef", 3, "abc"},
		{"ゲームパッド設定", 10, "ゲーム..."},
		{"ゲームパッド設定", 16, "ゲームパッド設定"},
		{"Café Señor Controller", 12, "Café Seño..."},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	title := "Steam: ゲームパッド設定 - コントローラー"

	for width := 1; width <= runewidth.StringWidth(title); width++ {
		got := Truncate(title, width)
		if !utf8.ValidString(got) {
			t.Fatalf("Truncate(%q, %d) = %q, not valid UTF-8", title, width, got)
		}
		if w := runewidth.StringWidth(got); w > width {
			t.Errorf("Truncate(%q, %d) is %d columns wide", title, width, w)
		}
	}
}
