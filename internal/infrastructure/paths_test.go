package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCategory(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "console1", "console1"},
		{"composite platform", "Turbografx-16 / PC Engine", "Turbografx-16"},
		{"leading slash part trimmed", "nintendo 64/n64", "nintendo 64"},
		{"whitespace", "  snes  ", "snes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeCategory(tt.in))
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Game A", "Game A"},
		{"colon", "Ys III: Wanderers from Ys", "Ys III_ Wanderers from Ys"},
		{"question mark", "WarioWare: Touched?", "WarioWare_ Touched_"},
		{"trailing dot", "S.T.A.L.K.E.R.", "S.T.A.L.K.E.R"},
		{"separators", "a/b\\c", "a_b_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeName(tt.in))
		})
	}
}
