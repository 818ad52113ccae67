// Package htmlutils handles the HTML the pipeline touches: markup embedded in
// source summaries and Telegram's HTML parse mode.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	ellipsis      = "…"
	ellipsisUnits = 1
	maxEntityLen  = 10
)

// tagPattern only matches well-formed tags so text like "a < b" survives.
var tagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(?:\s[^<>]*)?/?>`)

var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "h1": true, "h2": true, "h3": true, "h4": true,
}

// UTF16Len returns the length of s in UTF-16 code units. Telegram counts
// message limits in these units, so characters outside the BMP count twice.
func UTF16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// StripTags removes markup and decodes entities. Block-level tags become a
// space so adjacent paragraphs do not run together.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	stripped := tagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		if blockTags[TagName(tag)] {
			return " "
		}

		return ""
	})

	return html.UnescapeString(stripped)
}

// TagName returns the lowercase element name of a tag such as `<a href="x">`.
func TagName(tag string) string {
	name := strings.TrimLeft(tag, "</")

	if i := strings.IndexAny(name, " \t\n/>"); i >= 0 {
		name = name[:i]
	}

	return strings.ToLower(name)
}

// Truncate shortens Telegram HTML to at most maxUnits UTF-16 units, ending
// with an ellipsis. Tags and entities are never split and tags left open at
// the cut are closed.
func Truncate(s string, maxUnits int) string {
	if UTF16Len(s) <= maxUnits {
		return s
	}

	var (
		sb    strings.Builder
		open  []string
		units int
	)

	for rest := s; rest != ""; {
		tok := nextToken(rest)

		next := open
		if isTag(tok) {
			next = track(open, tok)
		}

		n := UTF16Len(tok)
		if units+n+ellipsisUnits+closingLen(next) > maxUnits {
			break
		}

		sb.WriteString(tok)
		units += n
		open = next
		rest = rest[len(tok):]
	}

	sb.WriteString(ellipsis)

	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + open[i] + ">")
	}

	return sb.String()
}

func nextToken(s string) string {
	switch s[0] {
	case '<':
		if i := strings.IndexByte(s, '>'); i > 0 {
			return s[:i+1]
		}
	case '&':
		if i := strings.IndexByte(s, ';'); i > 0 && i <= maxEntityLen && !strings.ContainsAny(s[:i], " <&\n") {
			return s[:i+1]
		}
	}

	_, size := utf8.DecodeRuneInString(s)

	return s[:size]
}

func isTag(tok string) bool {
	return len(tok) > 2 && tok[0] == '<' && tok[len(tok)-1] == '>'
}

func track(open []string, tag string) []string {
	name := TagName(tag)

	switch {
	case name == "" || name == "br" || strings.HasSuffix(tag, "/>"):
		return open
	case strings.HasPrefix(tag, "</"):
		for i := len(open) - 1; i >= 0; i-- {
			if open[i] == name {
				return open[:i]
			}
		}

		return open
	default:
		return append(open[:len(open):len(open)], name)
	}
}

func closingLen(open []string) int {
	n := 0

	for _, name := range open {
		n += len(name) + len("</>")
	}

	return n
}
