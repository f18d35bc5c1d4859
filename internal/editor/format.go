package editor

import "strings"

// Format is a bitmask of the formatting states active at the cursor.
type Format uint8

const (
	FormatBold Format = 1 << iota
	FormatItalic
	FormatUnderline
	FormatHeading
	FormatBulletList
)

func (f Format) Has(flag Format) bool {
	return f&flag != 0
}

// tag returns the HTML wrapper for a single format flag.
func formatTags(flag Format) (open, close string) {
	switch flag {
	case FormatBold:
		return "<b>", "</b>"
	case FormatItalic:
		return "<i>", "</i>"
	case FormatUnderline:
		return "<u>", "</u>"
	case FormatHeading:
		return "<h1>", "</h1>"
	case FormatBulletList:
		return "<ul><li>", "</li></ul>"
	default:
		return "", ""
	}
}

func wrapFormat(block string, flag Format) string {
	open, close := formatTags(flag)
	if open == "" || isWrapped(block, flag) {
		return block
	}
	return open + block + close
}

func unwrapFormat(block string, flag Format) string {
	open, close := formatTags(flag)
	if open == "" || !isWrapped(block, flag) {
		return block
	}
	return strings.TrimSuffix(strings.TrimPrefix(block, open), close)
}

func isWrapped(block string, flag Format) bool {
	open, close := formatTags(flag)
	return open != "" && strings.HasPrefix(block, open) && strings.HasSuffix(block, close)
}

// blockFormats reads the formatting state back out of a block's markup, so
// the active-format snapshot follows the live selection rather than only
// the toggles made in this session.
func blockFormats(block string) Format {
	var f Format
	for _, flag := range []Format{FormatBold, FormatItalic, FormatUnderline, FormatHeading, FormatBulletList} {
		if isWrapped(block, flag) {
			f |= flag
		}
	}
	return f
}

// plainText strips HTML tags; used for caret-at-end offsets.
func plainText(block string) string {
	var b strings.Builder
	inTag := false
	for _, r := range block {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isEmptyBlock reports whether a block holds no user content. The browser
// leaves a bare <br> in cleared contenteditable regions.
func isEmptyBlock(block string) bool {
	trimmed := strings.TrimSpace(plainText(strings.ReplaceAll(block, "<br>", "")))
	return trimmed == ""
}
