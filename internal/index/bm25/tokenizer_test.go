package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"only punctuation", "  ,.!? ", []string{}},
		{"lowercases", "Kyoto Temples", []string{"kyoto", "temples"}},
		{"punctuation splits", "snow-capped, peaks!", []string{"snow", "capped", "peaks"}},
		{"underscore and digits", "route_66 in 1926", []string{"route_66", "in", "1926"}},
		{"unicode letters", "Ærø Ünterwegs Київ", []string{"ærø", "ünterwegs", "київ"}},
		{"apostrophe splits", "o'clock", []string{"o", "clock"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}
