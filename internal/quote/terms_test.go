package quote

import (
	"reflect"
	"testing"
)

func TestParseTerms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"single", "3214-22-1", []string{"3214-22-1"}},
		{"spaces", "3214-22-1 APU-331-200", []string{"3214-22-1", "APU-331-200"}},
		{"mixed separators", "a,b;c\td\ne", []string{"A", "B", "C", "D", "E"}},
		{"windows newlines", "a\r\nb\r\nc", []string{"A", "B", "C"}},
		{"uppercased", "s271w205-1", []string{"S271W205-1"}},
		{"dedupe keeps first position", "a b A c b", []string{"A", "B", "C"}},
		{"empty", "", []string{}},
		{"only separators", " ,;\n\t ", []string{}},
		{"surrounding whitespace", "  3214-22-1  ", []string{"3214-22-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTerms(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseTerms(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}
