package extract

import "testing"

func TestNormalize_Steps(t *testing.T) {
	cases := []struct {
		name  string
		frags []string
		want  string
	}{
		{"joins with single spaces", []string{"a", "b", "c"}, "a b c"},
		{"collapses horizontal whitespace", []string{"a  \t b"}, "a b"},
		{"trims spaces around newlines", []string{"a", "\n\n", "b"}, "a<br><br>b"},
		{"caps newline stacking at two", []string{"a", "\n\n", "\n\n", "\n\n", "b"}, "a<br><br>b"},
		{"single newline becomes line break", []string{"a\n", "b"}, "a<br>b"},
		{"drops trailing paragraph break", []string{"a", "\n\n"}, "a"},
		{"drops leading paragraph break", []string{"\n\n", "a"}, "a"},
		{"empty input", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.frags); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.frags, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := [][]string{
		{"a", "b", "\n\n", "c"},
		{"x\n", "y"},
		{"  spaced   ", "\n\n", "\n", "tail  "},
		{`\[x^2\]`, "\n\n"},
		{"plain"},
	}
	for _, frags := range inputs {
		once := Normalize(frags)
		twice := Normalize([]string{once})
		if once != twice {
			t.Fatalf("not idempotent: first %q, second %q", once, twice)
		}
	}
}
