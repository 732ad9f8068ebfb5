package record

import (
	"strconv"
	"strings"
	"unicode"
)

// minToCEntries is the number of heading/section blocks needed before a
// table of contents is emitted.
const minToCEntries = 2

// RenderMarkdown produces a human-readable Markdown view of rec: YAML-style
// front matter, a title, an optional table of contents, then one rendering
// per content block in order.
func RenderMarkdown(rec DocumentRecord) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("title: ")
	b.WriteString(quoteFrontMatter(rec.Title))
	b.WriteString("\nurl: ")
	b.WriteString(quoteFrontMatter(rec.URL))
	b.WriteString("\ntimestamp: ")
	b.WriteString(quoteFrontMatter(rec.Timestamp))
	b.WriteString("\nblocks: ")
	b.WriteString(strconv.Itoa(len(rec.Content)))
	b.WriteString("\n---\n\n")

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = rec.URL
	}
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if rec.URL != "" {
		b.WriteString("> Source: [")
		b.WriteString(rec.URL)
		b.WriteString("](")
		b.WriteString(rec.URL)
		b.WriteString(")\n\n")
	}

	writeToC(&b, rec.Content)

	for i, blk := range rec.Content {
		writeBlock(&b, blk)
		// Close a parameter list once the run of parameters ends.
		if blk.Type == KindParameter && (i+1 == len(rec.Content) || rec.Content[i+1].Type != KindParameter) {
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeToC(b *strings.Builder, blocks []ContentBlock) {
	entries := make([]string, 0, len(blocks))
	for _, blk := range blocks {
		switch blk.Type {
		case KindHeading:
			entries = append(entries, strings.TrimSpace(blk.Text))
		case KindSection:
			entries = append(entries, strings.TrimSpace(blk.Title))
		}
	}
	n := 0
	for _, e := range entries {
		if e != "" {
			n++
		}
	}
	if n < minToCEntries {
		return
	}
	b.WriteString("## Table of contents\n\n")
	i := 1
	for _, e := range entries {
		if e == "" {
			continue
		}
		b.WriteString(strconv.Itoa(i))
		b.WriteString(". [")
		b.WriteString(e)
		b.WriteString("](#")
		b.WriteString(anchorSlug(e))
		b.WriteString(")\n")
		i++
	}
	b.WriteString("\n")
}

func writeBlock(b *strings.Builder, blk ContentBlock) {
	switch blk.Type {
	case KindHeading:
		if t := strings.TrimSpace(blk.Text); t != "" {
			b.WriteString("## " + t + "\n\n")
		}
	case KindText, KindFunctionDescription:
		if t := strings.TrimSpace(blk.Text); t != "" {
			b.WriteString(t + "\n\n")
		}
	case KindDescription:
		if t := strings.TrimSpace(blk.Text); t != "" {
			b.WriteString("> " + strings.ReplaceAll(t, "\n", "\n> ") + "\n\n")
		}
	case KindSection:
		if t := strings.TrimSpace(blk.Title); t != "" {
			b.WriteString("## " + t + "\n\n")
		}
		if t := strings.TrimSpace(blk.Text); t != "" {
			b.WriteString(t + "\n\n")
		}
	case KindFunctionSignature:
		if t := strings.TrimSpace(blk.Text); t != "" {
			b.WriteString("### `" + t + "`\n\n")
		}
	case KindParameter:
		b.WriteString("- `" + strings.TrimSpace(blk.Name) + "`")
		if d := strings.TrimSpace(blk.Description); d != "" {
			b.WriteString(": " + d)
		}
		b.WriteString("\n")
	case KindEndpoint:
		line := strings.TrimSpace(strings.ToUpper(blk.Method) + " " + blk.Path)
		if line != "" {
			b.WriteString("### " + line + "\n\n")
		}
		if d := strings.TrimSpace(blk.Description); d != "" {
			b.WriteString(d + "\n\n")
		}
	}
}

func quoteFrontMatter(s string) string {
	return strconv.Quote(s)
}

// anchorSlug follows the GitHub heading anchor rules closely enough for
// intra-document links.
func anchorSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
