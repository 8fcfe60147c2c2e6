package utils

import "testing"

func TestNormalizeRomPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{".\\sub\\game.zip", "./sub/game.zip"},
		{"./sub/game.zip", "./sub/game.zip"},
		{"game.zip", "game.zip"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeRomPath(tt.input); got != tt.want {
			t.Errorf("NormalizeRomPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeRomPathKeepsDotSlash(t *testing.T) {
	// "./game.zip" and "game.zip" are distinct keys in a gamelist.
	if NormalizeRomPath("./game.zip") == NormalizeRomPath("game.zip") {
		t.Error("A ./ prefix must be preserved, not stripped")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cover.png", "cover.png"},
		{"dir/cover.png", "cover.png"},
		{"..\\..\\etc\\passwd", "passwd"},
		{"../../escape.png", "escape.png"},
		{"..", ""},
		{".", ""},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.input); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
