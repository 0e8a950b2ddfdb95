package llm

import (
	"reflect"
	"testing"
)

func TestSplitItems(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t ", nil},
		{"dash bullets", "- A\n- B", []string{"A", "B"}},
		{"asterisk bullets", "* The author should define a synapse.\n* The author should mention neurotransmitters.",
			[]string{"The author should define a synapse.", "The author should mention neurotransmitters."}},
		{"unicode bullets", "• first\n• second", []string{"first", "second"}},
		{"no markers", "  Everything looks good.  ", []string{"Everything looks good."}},
		{"multiline plain text", "Line one.\nLine two.", []string{"Line one.\nLine two."}},
		{"continuation lines folded", "- The author should explain action potentials,\n  including the threshold.\n- Second item.",
			[]string{"The author should explain action potentials, including the threshold.", "Second item."}},
		{"leading prose before bullets ignored", "Here is feedback:\n- A\n- B", []string{"A", "B"}},
		{"blank lines between bullets", "- A\n\n- B\n", []string{"A", "B"}},
		{"bare marker line skipped", "- A\n-\n- B", []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitItems(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitItems(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}
