package textnorm

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLower(t *testing.T) {
	assert.Equal(t, "joão da silva", Lower("JOÃO DA SILVA"))
	// decomposed "a" + combining tilde composes to the same string
	assert.Equal(t, "joão", Lower("JOA\u0303O"))
}

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \n\t b   c  "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "joã", Truncate("joão", 3))
	assert.Equal(t, "joão", Truncate("joão", 10))
	assert.Equal(t, "joão", Truncate("joão", 0))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "keeps game titles intact",
			in:   "FURIA CS:GO torneio jogador",
			want: []string{"furia", "cs:go", "torneio", "jogador"},
		},
		{
			name: "strips hashtags mentions and trailing punctuation",
			in:   "#FURIA vamos @furiagg! Competição, partida.",
			want: []string{"furia", "vamos", "furiagg", "competição", "partida"},
		},
		{
			name: "splits on slashes and parentheses",
			in:   "valorant/dota (moba)",
			want: []string{"valorant", "dota", "moba"},
		},
		{
			name: "keeps hyphenated words",
			in:   "Counter-Strike 2",
			want: []string{"counter-strike", "2"},
		},
		{
			name: "drops emoji-only chunks",
			in:   "gg 🔥 🎮",
			want: []string{"gg"},
		},
		{
			name: "empty",
			in:   "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Tokenize(tt.in)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
