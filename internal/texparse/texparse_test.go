package texparse

import (
	"reflect"
	"testing"
)

const sampleBlock = `
\begin{ex}
What is the answer?
\choice
{A}
{\True B}
{C}
\loigiai{because B}
\end{ex}
`

func intPtr(v int) *int { return &v }

func TestExtractSingleBlock(t *testing.T) {
	qs := Extract(sampleBlock)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	q := qs[0]
	if q.Stem != "What is the answer?" {
		t.Errorf("stem = %q", q.Stem)
	}
	if want := []string{"A", "B", "C"}; !reflect.DeepEqual(q.Options, want) {
		t.Errorf("options = %q, want %q", q.Options, want)
	}
	if q.CorrectAnswer == nil || *q.CorrectAnswer != 1 {
		t.Errorf("correct answer = %v, want 1", q.CorrectAnswer)
	}
	if q.Solution != "because B" {
		t.Errorf("solution = %q", q.Solution)
	}
}

func TestExtractNoBlocks(t *testing.T) {
	for _, in := range []string{"", "plain text", `\begin{ex} never closed`, `\end{ex} \begin{document}`} {
		qs := Extract(in)
		if qs == nil {
			t.Fatalf("Extract(%q) returned nil slice", in)
		}
		if len(qs) != 0 {
			t.Errorf("Extract(%q) = %d questions, want 0", in, len(qs))
		}
	}
}

func TestExtractFirstMarkWins(t *testing.T) {
	qs := Extract(`\begin{ex}Q \choice {\True x}{y}{\True z}\end{ex}`)
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].CorrectAnswer == nil || *qs[0].CorrectAnswer != 0 {
		t.Errorf("correct answer = %v, want 0", qs[0].CorrectAnswer)
	}
	if want := []string{"x", "y", "z"}; !reflect.DeepEqual(qs[0].Options, want) {
		t.Errorf("options = %q, want %q", qs[0].Options, want)
	}
}

func TestExtractCases(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		stem     string
		options  []string
		correct  *int
		solution string
	}{
		{
			name:    "no choice marker keeps empty stem",
			in:      `\begin{ex}Just a statement {with braces}\end{ex}`,
			stem:    "",
			options: []string{},
		},
		{
			name:    "no marked option",
			in:      `\begin{ex}Q\choice{a}{b}\end{ex}`,
			stem:    "Q",
			options: []string{"a", "b"},
		},
		{
			name:    "nested braces stay in one option",
			in:      `\begin{ex}Compute $\frac{1}{2}+\frac{1}{2}$\choice{$\frac{1}{2}$}{\True $1$}{$2$}\end{ex}`,
			stem:    `Compute $\frac{1}{2}+\frac{1}{2}$`,
			options: []string{`$\frac{1}{2}$`, `$1$`, `$2$`},
			correct: intPtr(1),
		},
		{
			name:    "escaped braces are literal",
			in:      `\begin{ex}Set?\choice{$\{1\}$}{\True $\emptyset$}\end{ex}`,
			stem:    "Set?",
			options: []string{`$\{1\}$`, `$\emptyset$`},
			correct: intPtr(1),
		},
		{
			name:     "layout argument is skipped and solution read",
			in:       "\\begin{ex}Pick\n\\choice[2]\n  {one}\n  {\\True two}\n\\loigiai{\n  Two is right.\n}\n\\end{ex}",
			stem:     "Pick",
			options:  []string{"one", "two"},
			correct:  intPtr(1),
			solution: "Two is right.",
		},
		{
			name:     "solution group is not an option",
			in:       `\begin{ex}Q\choice{a}{\True b}\loigiai{c}\end{ex}`,
			stem:     "Q",
			options:  []string{"a", "b"},
			correct:  intPtr(1),
			solution: "c",
		},
		{
			name:    "unterminated option is dropped",
			in:      `\begin{ex}Q\choice{a}{\True b\end{ex}`,
			stem:    "Q",
			options: []string{"a"},
		},
		{
			name:    "longer control word is not the choice marker",
			in:      `\begin{ex}Q\choiceTF{a}{b}\end{ex}`,
			stem:    "",
			options: []string{},
		},
		{
			name:     "comma separated options",
			in:       `\begin{ex} Q? \choice {A}, {\True B}, {C} \loigiai{because B} \end{ex}`,
			stem:     "Q?",
			options:  []string{"A", "B", "C"},
			correct:  intPtr(1),
			solution: "because B",
		},
		{
			name:    "comment between options",
			in:      "\\begin{ex}Q?\\choice\n {A} % first {not an option}\n {\\True B}\n {C}\n\\end{ex}",
			stem:    "Q?",
			options: []string{"A", "B", "C"},
			correct: intPtr(1),
		},
		{
			name:     "stem braces are not options",
			in:       `\begin{ex}Half is $\frac{1}{2}$?\choice{\True yes}{no}\loigiai{$\frac{2}{4}$}\end{ex}`,
			stem:     `Half is $\frac{1}{2}$?`,
			options:  []string{"yes", "no"},
			correct:  intPtr(0),
			solution: `$\frac{2}{4}$`,
		},
		{
			name:    "escaped percent is not a comment",
			in:      `\begin{ex}Rate?\choice{\True 50\%} \% {25\%}\end{ex}`,
			stem:    "Rate?",
			options: []string{`50\%`, `25\%`},
			correct: intPtr(0),
		},
		{
			name:     "solution with nested braces",
			in:       `\begin{ex}Q\choice{\True a}\loigiai{Use $x^{2}$.}\end{ex}`,
			stem:     "Q",
			options:  []string{"a"},
			correct:  intPtr(0),
			solution: "Use $x^{2}$.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qs := Extract(tt.in)
			if len(qs) != 1 {
				t.Fatalf("expected 1 question, got %d", len(qs))
			}
			q := qs[0]
			if q.Stem != tt.stem {
				t.Errorf("stem = %q, want %q", q.Stem, tt.stem)
			}
			if !reflect.DeepEqual(q.Options, tt.options) {
				t.Errorf("options = %q, want %q", q.Options, tt.options)
			}
			if !reflect.DeepEqual(q.CorrectAnswer, tt.correct) {
				t.Errorf("correct answer = %v, want %v", q.CorrectAnswer, tt.correct)
			}
			if q.Solution != tt.solution {
				t.Errorf("solution = %q, want %q", q.Solution, tt.solution)
			}
		})
	}
}

func TestExtractKeepsDocumentOrder(t *testing.T) {
	doc := `\documentclass{article}
\begin{document}
\begin{ex}First\choice{\True 1}{2}\end{ex}
Some prose between blocks.
\begin{ex}Second\choice{1}{\True 2}\end{ex}
\begin{ex}Third\choice{1}{2}{\True 3}\end{ex}
\end{document}`

	qs := Extract(doc)
	if len(qs) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(qs))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if qs[i].Stem != want {
			t.Errorf("question %d stem = %q, want %q", i, qs[i].Stem, want)
		}
		if qs[i].CorrectAnswer == nil || *qs[i].CorrectAnswer != i {
			t.Errorf("question %d correct = %v, want %d", i, qs[i].CorrectAnswer, i)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	doc := sampleBlock + `\begin{ex}Other\choice{\True p}{q}\end{ex}`
	first := Extract(doc)
	second := Extract(doc)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract is not deterministic:\n%+v\n%+v", first, second)
	}
}
