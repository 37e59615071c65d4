package markov

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single sentence",
			text: "hello there chat",
			want: []string{"hello there chat"},
		},
		{
			name: "terminal punctuation splits",
			text: "Done! Next question? Fine.",
			want: []string{"Done!", "Next question?", "Fine."},
		},
		{
			name: "newlines split",
			text: "first line\nsecond line",
			want: []string{"first line", "second line"},
		},
		{
			name: "mid-word punctuation stays",
			text: "pi is 3.14 and v1.2 shipped!",
			want: []string{"pi is 3.14 and v1.2 shipped!"},
		},
		{
			name: "punctuation runs stay together",
			text: "what?! no way...",
			want: []string{"what?!", "no way..."},
		},
		{
			name: "blank lines dropped",
			text: "\n\n  \nhello\n",
			want: []string{"hello"},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SplitSentences(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("  hello   there,  chat!  ")
	want := []string{"hello", "there,", "chat!"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestStateKeyRoundTrip(t *testing.T) {
	tokens := []string{"two", "words"}
	if diff := cmp.Diff(tokens, stateTokens(stateKey(tokens))); diff != "" {
		t.Errorf("state key round trip mismatch (-want +got):\n%s", diff)
	}
}
