// Package transcript presents the output of a shell command as a fenced
// code block, in markdown or as sanitized HTML.
package transcript

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

// Transcript is one command and the lines it produced.
type Transcript struct {
	// Prompt is printed before the command, for example "$".
	Prompt  string
	Command string
	// Highlight is the info string of the code fence, for example "ansi".
	Highlight string
	Lines     []string
}

// Markdown renders the transcript as a fenced code block:
//
//	```ansi
//	$ echo hi
//	hi
//	```
//
// Double backticks in the command get the same zero-width space as cleaned
// output lines, so nothing inside can close the fence.
func (t Transcript) Markdown() string {
	var b strings.Builder
	b.WriteString("```")
	b.WriteString(t.Highlight)
	b.WriteByte('\n')
	if t.Command != "" {
		if t.Prompt != "" {
			b.WriteString(t.Prompt)
			b.WriteByte(' ')
		}
		b.WriteString(strings.ReplaceAll(t.Command, "``", "`\u200b`"))
		b.WriteByte('\n')
	}
	for _, line := range t.Lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	return b.String()
}

// HTML renders the transcript to sanitized HTML. Escape sequences are
// removed first since a browser cannot show them.
func (t Transcript) HTML() string {
	plain := t
	plain.Lines = make([]string, len(t.Lines))
	for i, line := range t.Lines {
		plain.Lines[i] = ansi.Strip(line)
	}
	return RenderToHTML(plain.Markdown())
}

// RenderToHTML converts markdown text to sanitized HTML. blackfriday does the
// parsing and bluemonday removes anything unsafe.
func RenderToHTML(markdown string) string {
	unsafeHTML := blackfriday.Run(
		[]byte(markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
	)

	policy := bluemonday.UGCPolicy()
	// Keep the language-* class blackfriday puts on fenced code
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")

	return string(policy.SanitizeBytes(unsafeHTML))
}
