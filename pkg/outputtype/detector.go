// Package outputtype guesses what kind of program produced a stream of
// terminal output, so callers can tell line oriented output apart from
// screens that only make sense in a real terminal.
package outputtype

import (
	"regexp"
	"strings"
)

// Type is the detected kind of output.
type Type string

const (
	Unknown    Type = "unknown"
	Binary     Type = "binary"
	Text       Type = "text"
	Fullscreen Type = "fullscreen"
	Styled     Type = "styled"
	Markdown   Type = "markdown"
)

// LineOriented reports whether lines of this type survive cleaning in a
// readable form.
func (t Type) LineOriented() bool {
	return t != Binary && t != Fullscreen
}

const (
	maxBytes = 8192
	maxLines = 50

	markdownThreshold = 3
)

var (
	sgr            = regexp.MustCompile(`\x1b\[[0-9;]+m`)
	cursorMovement = regexp.MustCompile(`\x1b\[(?:\d*[ABCD]|\d*(?:;\d+)?H)`)
	orderedItem    = regexp.MustCompile(`^\d+\. `)
	markdownHeader = regexp.MustCompile(`^#{1,6}(?: |$)`)
	markdownLink   = regexp.MustCompile(`\[[^\]]*\]\([^)]*\)`)
)

// Detector looks at the first lines of raw output. It is not safe for
// concurrent use.
type Detector struct {
	detected Type
	reason   string

	bytes int
	lines int

	colors   bool
	cursor   bool
	markdown int
}

// NewDetector returns a detector that has not seen any output.
func NewDetector() *Detector {
	return &Detector{detected: Unknown}
}

// AnalyzeLine feeds one raw line, escape sequences included. It returns true
// once the type is settled; later lines are ignored.
func (d *Detector) AnalyzeLine(line string) bool {
	if d.Detected() {
		return true
	}
	d.bytes += len(line)
	d.lines++

	if isBinary(line) {
		return d.settle(Binary, "null bytes or mostly non-printable characters")
	}

	if strings.Contains(line, "\x1b[") {
		switch {
		case containsAny(line, "\x1b[?1049h", "\x1b[?1047h", "\x1b[?47h"):
			return d.settle(Fullscreen, "alternate screen buffer escape sequence")
		case containsAny(line, "\x1b[2J", "\x1b[3J"):
			return d.settle(Fullscreen, "clear screen escape sequence")
		}
		d.cursor = d.cursor || cursorMovement.MatchString(line)
		d.colors = d.colors || sgr.MatchString(line)
	}

	d.markdown += markdownScore(line)

	if d.bytes >= maxBytes || d.lines >= maxLines {
		d.Finish()
		return true
	}
	return false
}

// Finish settles the type from what was seen so far. Call it when the stream
// ends before AnalyzeLine reached a decision.
func (d *Detector) Finish() {
	if d.Detected() {
		return
	}
	switch {
	case d.lines == 0:
		d.settle(Text, "no output")
	case d.markdown >= markdownThreshold:
		d.settle(Markdown, "markdown formatting")
	case d.colors || d.cursor:
		d.settle(Styled, "color or cursor escape sequences without a fullscreen switch")
	default:
		d.settle(Text, "no terminal control sequences")
	}
}

// Detected reports whether the type is settled.
func (d *Detector) Detected() bool {
	return d.detected != Unknown
}

// Result returns the detected type and a short human readable reason.
func (d *Detector) Result() (Type, string) {
	return d.detected, d.reason
}

func (d *Detector) settle(t Type, reason string) bool {
	d.detected = t
	d.reason = reason
	return true
}

func isBinary(line string) bool {
	if line == "" {
		return false
	}
	nonPrintable := 0
	for _, r := range line {
		if r == 0 {
			return true
		}
		// ESC starts escape sequences and is expected in terminal output.
		if r < 32 && r != '\t' && r != '\n' && r != '\r' && r != 0x1b {
			nonPrintable++
		} else if r > 126 && r < 160 {
			nonPrintable++
		}
	}
	return float64(nonPrintable) > float64(len(line))*0.3
}

func markdownScore(line string) int {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return 0
	}

	score := 0
	if markdownHeader.MatchString(trimmed) {
		score++
	}
	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		score++
	}
	if containsPrefix(trimmed, "- ", "* ", "+ ", "> ") || orderedItem.MatchString(trimmed) {
		score++
	}
	if markdownLink.MatchString(line) {
		score++
	}
	if containsAny(line, "**", "__") {
		score++
	}
	return score
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
