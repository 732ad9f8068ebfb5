package record

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var linkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`) // [text](url)

// WritePDF renders the Markdown view of rec into a minimal A4 PDF. Headings
// get a larger bold font and external links stay clickable; no other
// Markdown layout is attempted.
func WritePDF(rec DocumentRecord, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate so accented text survives.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(rec.Title), false)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	md := RenderMarkdown(rec)
	// Front matter is metadata, not page content.
	if strings.HasPrefix(md, "---\n") {
		if end := strings.Index(md[4:], "\n---\n"); end >= 0 {
			md = md[4+end+5:]
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(md))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(4)
			continue
		}
		if strings.HasPrefix(s, "#") {
			i := 0
			for i < len(s) && s[i] == '#' {
				i++
			}
			text := strings.Trim(strings.TrimSpace(s[i:]), "`")
			if text == "" {
				continue
			}
			size := 16.0
			switch {
			case i == 2:
				size = 13.0
			case i >= 3:
				size = 11.5
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 7, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			text := s[m[2]:m[3]]
			url := s[m[4]:m[5]]
			if strings.HasPrefix(url, "#") {
				pdf.Write(5, tr(text))
			} else {
				pdf.WriteLinkString(5, tr(text), url)
			}
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
