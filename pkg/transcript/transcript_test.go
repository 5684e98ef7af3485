package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name       string
		transcript Transcript
		expected   string
	}{
		{
			name: "command and output",
			transcript: Transcript{
				Prompt:    "$",
				Command:   "printf 'a\\nb\\n'",
				Highlight: "ansi",
				Lines:     []string{"a", "b"},
			},
			expected: "```ansi\n$ printf 'a\\nb\\n'\na\nb\n```\n",
		},
		{
			name:       "no command",
			transcript: Transcript{Highlight: "ansi", Lines: []string{"only output"}},
			expected:   "```ansi\nonly output\n```\n",
		},
		{
			name:       "no prompt",
			transcript: Transcript{Command: "dir", Highlight: "cmd"},
			expected:   "```cmd\ndir\n```\n",
		},
		{
			name:       "empty",
			transcript: Transcript{},
			expected:   "```\n```\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.transcript.Markdown())
		})
	}
}

func TestMarkdown_CommandCannotCloseFence(t *testing.T) {
	md := Transcript{Prompt: "$", Command: "echo ```", Highlight: "ansi"}.Markdown()

	require.Equal(t, 2, strings.Count(md, "```"))
	require.Contains(t, md, "`\u200b`")
}

func TestHTML(t *testing.T) {
	html := Transcript{
		Prompt:    "$",
		Command:   "ls",
		Highlight: "ansi",
		Lines:     []string{"\x1b[31mred.txt\x1b[0m", "<script>alert('x')</script>"},
	}.HTML()

	require.Contains(t, html, `<pre><code class="language-ansi">`)
	require.Contains(t, html, "$ ls")
	require.Contains(t, html, "red.txt")
	require.NotContains(t, html, "\x1b")
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "&lt;script&gt;")
}

func TestRenderToHTML_XSSPrevention(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		shouldBlock string
	}{
		{name: "script tag", input: "<script>alert('xss')</script>", shouldBlock: "<script>"},
		{name: "onclick handler", input: "<a href=\"#\" onclick=\"alert('xss')\">Click me</a>", shouldBlock: "onclick"},
		{name: "javascript protocol", input: "[Click me](javascript:alert('xss'))", shouldBlock: "javascript:"},
		{name: "iframe", input: "<iframe src=\"http://evil.com\"></iframe>", shouldBlock: "<iframe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotContains(t, RenderToHTML(tt.input), tt.shouldBlock)
		})
	}
}
