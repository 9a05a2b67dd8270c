package visual

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Elements
	}{
		{
			name: "plain text",
			text: "Nothing but prose in this chunk. It keeps going for a while.",
			want: Elements{},
		},
		{
			name: "markdown image",
			text: "See the diagram: ![circuit overview](img/fig3.png)",
			want: Elements{Images: 1},
		},
		{
			name: "figure caption",
			text: "As shown in Figure 12, the voltage drops sharply.",
			want: Elements{Images: 1},
		},
		{
			name: "spanish figure caption",
			text: "Como muestra la Figura 4, el circuito se cierra.",
			want: Elements{Images: 1},
		},
		{
			name: "html img tag",
			text: `Inline graphic <img src="x.png" alt=""> appears here.`,
			want: Elements{Images: 1},
		},
		{
			name: "markdown table",
			text: "| Name | Value |\n|------|-------|\n| a    | 1     |\n| b    | 2     |\n",
			want: Elements{Tables: 1},
		},
		{
			name: "pipe rows without separator",
			text: "| just | one |\n| loose | grid |\n",
			want: Elements{Tables: 1},
		},
		{
			name: "display formula",
			text: "The relation $$E = mc^2$$ holds.",
			want: Elements{Formulas: 1},
		},
		{
			name: "latex environment",
			text: `\begin{equation} x = y \end{equation}`,
			want: Elements{Formulas: 1},
		},
		{
			name: "bullet list",
			text: "- first item\n- second item\n- third item\n",
			want: Elements{Lists: 3},
		},
		{
			name: "numbered list",
			text: "1. alpha\n2. beta\n",
			want: Elements{Lists: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.text); got != tt.want {
				t.Errorf("Detect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDetectCombined(t *testing.T) {
	text := "![chart](c.png)\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- item one\n- item two\n\nInline math $x+y$ closes it.\n"
	got := Detect(text)
	if got.Images != 1 || got.Tables != 1 || got.Formulas != 1 || got.Lists != 2 {
		t.Errorf("Detect() = %+v", got)
	}
	if !got.Any() {
		t.Error("Any() = false for mixed content")
	}
}

func TestSummary(t *testing.T) {
	if got := Detect("plain prose").Summary(); got != "Text only" {
		t.Errorf("Summary() = %q, want Text only", got)
	}

	e := Elements{Images: 2, Tables: 1, Lists: 3}
	s := e.Summary()
	if !strings.HasPrefix(s, "Contains ") {
		t.Errorf("Summary() = %q", s)
	}
	for _, want := range []string{"2 images/figures", "1 table", "3 list items"} {
		if !strings.Contains(s, want) {
			t.Errorf("Summary() = %q, missing %q", s, want)
		}
	}
	if strings.Contains(s, "formula") {
		t.Errorf("Summary() = %q mentions absent category", s)
	}
}
