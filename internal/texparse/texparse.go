// Package texparse extracts multiple-choice questions from ex_test style
// LaTeX markup:
//
//	\begin{ex}
//	  Stem text, may contain $math$.
//	  \choice
//	    {first}
//	    {\True second}
//	    {third}
//	  \loigiai{Explanation.}
//	\end{ex}
//
// Blocks are not nested. Braces nest inside option and solution groups;
// \{ and \} are literal characters. Parsing never fails: regions that do not
// match the grammar simply produce nothing.
package texparse

import (
	"strings"

	"github.com/pavelanni/texexam/internal/model"
)

// Markup markers.
const (
	BlockBegin     = `\begin{ex}`
	BlockEnd       = `\end{ex}`
	ChoiceMarker   = `\choice`
	TrueMarker     = `\True`
	SolutionMarker = `\loigiai`
)

// Extract returns one question per block in document order.
// The result is never nil.
func Extract(markup string) []model.Question {
	questions := []model.Question{}
	for _, block := range splitBlocks(markup) {
		questions = append(questions, parseBlock(block))
	}
	return questions
}

// splitBlocks returns the bodies between each begin marker and the nearest
// following end marker. A trailing begin without an end is ignored.
func splitBlocks(src string) []string {
	var blocks []string
	for {
		start := strings.Index(src, BlockBegin)
		if start < 0 {
			return blocks
		}
		src = src[start+len(BlockBegin):]
		end := strings.Index(src, BlockEnd)
		if end < 0 {
			return blocks
		}
		blocks = append(blocks, src[:end])
		src = src[end+len(BlockEnd):]
	}
}

// parseBlock builds a question from one block body. Without a \choice marker
// the stem is empty and there are no options.
func parseBlock(block string) model.Question {
	q := model.Question{
		Options:  []string{},
		Solution: solution(block),
	}

	at := findCommand(block, ChoiceMarker, 0)
	if at < 0 {
		return q
	}
	q.Stem = strings.TrimSpace(block[:at])

	region := block[at+len(ChoiceMarker):]
	if end := findCommand(region, SolutionMarker, 0); end >= 0 {
		region = region[:end]
	}
	for i, raw := range readGroups(region) {
		text, marked := stripTrueMarker(raw)
		q.Options = append(q.Options, text)
		if marked && q.CorrectAnswer == nil {
			idx := i
			q.CorrectAnswer = &idx
		}
	}
	return q
}

// readGroups returns every top-level brace group in s, in order. An optional
// [...] argument before the first group is skipped. Text between groups,
// such as separators and % comments, is ignored. Reading stops at an
// unterminated group.
func readGroups(s string) []string {
	i := skipSpace(s, 0)
	if i < len(s) && s[i] == '[' {
		if end := strings.IndexByte(s[i:], ']'); end >= 0 {
			i += end + 1
		}
	}

	var groups []string
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '%':
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return groups
			}
			i += nl + 1
		case '{':
			end := matchBrace(s, i)
			if end < 0 {
				return groups
			}
			groups = append(groups, s[i+1:end])
			i = end + 1
		default:
			i++
		}
	}
	return groups
}

// solution returns the content of the first \loigiai{...} group.
func solution(block string) string {
	from := 0
	for {
		at := findCommand(block, SolutionMarker, from)
		if at < 0 {
			return ""
		}
		open := skipSpace(block, at+len(SolutionMarker))
		if open < len(block) && block[open] == '{' {
			if end := matchBrace(block, open); end >= 0 {
				return strings.TrimSpace(block[open+1 : end])
			}
			return ""
		}
		from = at + len(SolutionMarker)
	}
}

// stripTrueMarker trims raw and removes a leading \True.
func stripTrueMarker(raw string) (string, bool) {
	t := strings.TrimSpace(raw)
	if !hasCommandAt(t, TrueMarker, 0) {
		return t, false
	}
	return strings.TrimSpace(t[len(TrueMarker):]), true
}

// matchBrace returns the index of the brace closing the group opened at
// s[open], or -1 when the group is unterminated. A backslash escapes the
// next byte, so \{ \} and \\ never change the depth.
func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// findCommand returns the index of the first control word name at or after
// from. A control word ends at the first non-letter, so \choice does not
// match \choiceTF.
func findCommand(s, name string, from int) int {
	for from <= len(s) {
		idx := strings.Index(s[from:], name)
		if idx < 0 {
			return -1
		}
		at := from + idx
		if hasCommandAt(s, name, at) {
			return at
		}
		from = at + len(name)
	}
	return -1
}

func hasCommandAt(s, name string, at int) bool {
	if !strings.HasPrefix(s[at:], name) {
		return false
	}
	next := at + len(name)
	return next >= len(s) || !isLetter(s[next])
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			i++
		default:
			return i
		}
	}
	return i
}
