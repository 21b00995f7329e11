package entities

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentence_punctuation",
			text: "I want to use MySQL, for my database.",
			want: []string{"i", "want", "to", "use", "mysql", "for", "my", "database"},
		},
		{
			name: "interior_punctuation_kept",
			text: "Node.js and C++ and C#",
			want: []string{"node.js", "and", "c++", "and", "c#"},
		},
		{
			name: "wrapping_punctuation",
			text: "(React) [MongoDB]",
			want: []string{"react", "mongodb"},
		},
		{
			name: "empty",
			text: "   ",
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tokenize(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"googlecroud", "googlecloud", 1},
		{"mysql", "mysql", 0},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
	}
	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Fatalf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
