package shellreader

import (
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// StderrPrefix marks lines that were written to standard error.
const StderrPrefix = "[stderr] "

// ansiEscape matches CSI sequences: cursor movement, erase, mode switches and
// SGR colors (group 2 is the terminator letter), or a row;column position
// ending in f or H.
var ansiEscape = regexp.MustCompile(`\x1b\[\??(\d*)(?:([ABCDEFGJKSThilmnsu])|;(\d+)([fH]))`)

// IsStderr reports whether a cleaned line came from standard error.
func IsStderr(line string) bool {
	return strings.HasPrefix(line, StderrPrefix)
}

// Clean decodes one raw line of shell output into display text.
//
// Invalid UTF-8 is never dropped: each byte that is not part of a valid
// sequence is replaced with U+FFFD. Carriage returns are removed, surrounding
// newlines are trimmed and escape sequences are filtered with FilterANSI.
// Double backticks get a zero-width space between them so the text cannot
// close a surrounding code fence.
func Clean(raw []byte, stripANSI bool) string {
	text := decode(raw)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.Trim(text, "\n")
	text = FilterANSI(text, stripANSI)
	text = strings.ReplaceAll(text, "``", "`\u200b`")
	return strings.Trim(text, "\n")
}

// CleanStderr is Clean for a line read from standard error.
func CleanStderr(raw []byte, stripANSI bool) string {
	tagged := make([]byte, 0, len(StderrPrefix)+len(raw))
	tagged = append(tagged, StderrPrefix...)
	tagged = append(tagged, raw...)
	return Clean(tagged, stripANSI)
}

// FilterANSI removes CSI escape sequences from text. With stripANSI false the
// SGR color sequences are kept and everything else is still removed.
// Filtering an already filtered string returns it unchanged.
func FilterANSI(text string, stripANSI bool) string {
	for {
		filtered := filterOnce(text, stripANSI)
		if filtered == text {
			return filtered
		}
		text = filtered
	}
}

func filterOnce(text string, stripANSI bool) string {
	matches := ansiEscape.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		last = m[1]
		// m[4]:m[5] is the terminator letter of the short form
		if !stripANSI && m[4] >= 0 && text[m[4]:m[5]] == "m" {
			b.WriteString(text[m[0]:m[1]])
		}
	}
	b.WriteString(text[last:])
	return b.String()
}

func decode(raw []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}
