package storage

import (
	"strings"
	"testing"
)

func TestIsImageContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"image/jpeg; charset=binary", true},
		{"video/mp4", false},
		{"", false},
		{"not a type", false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := IsImageContentType(tt.contentType); got != tt.want {
				t.Errorf("IsImageContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestNewCoverKey(t *testing.T) {
	a := NewCoverKey("abc", "image/png")
	b := NewCoverKey("abc", "image/png")

	if !strings.HasPrefix(a, CoverKeyPrefix("abc")) {
		t.Errorf("NewCoverKey() = %q, want prefix %q", a, CoverKeyPrefix("abc"))
	}
	if !strings.HasSuffix(a, ".png") {
		t.Errorf("NewCoverKey() = %q, want .png extension", a)
	}
	if a == b {
		t.Errorf("NewCoverKey() returned the same key twice: %q", a)
	}
}
