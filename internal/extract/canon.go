package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/mediator/internal/model"
	"golang.org/x/net/html"
)

const (
	maxIndexedInvariants = 4
	maxIndexedBodyWords  = 400
)

var (
	trailingTagPattern = regexp.MustCompile(`\s*\(\w+\)\s*$`)
	subtitlePattern    = regexp.MustCompile(`\s*A First-Principles.*$`)
	doiPattern         = regexp.MustCompile(`DOI:\s*(10\.\S+)`)
	statusPattern      = regexp.MustCompile(`Status:\s*(\S+)`)
	scopePattern       = regexp.MustCompile(`\*\*Scope Boundary:\*\*\s*(.+)`)
	fiduciaryPattern   = regexp.MustCompile(`\*\*Fiduciary Moment:\*\*\s*(.+)`)
	evidencePattern    = regexp.MustCompile(`\*\*Evidence Standard:\*\*\s*(.+)`)
	invariantHeading   = regexp.MustCompile(`^##\s+The Invariant\s*$`)
	headingLinePattern = regexp.MustCompile(`#.*\n`)
	boldPattern        = regexp.MustCompile(`\*\*[^*]+\*\*`)
)

// CanonParser extracts indexable content from canon documents
type CanonParser struct {
	terms *TermExtractor
}

// NewCanonParser creates a canon parser using the given term extractor
func NewCanonParser(terms *TermExtractor) *CanonParser {
	if terms == nil {
		terms = NewTermExtractor(nil)
	}
	return &CanonParser{terms: terms}
}

// IsCanonDocument reports whether a file name looks like an indexable canon document
func IsCanonDocument(name string) bool {
	if strings.HasPrefix(name, "Validation") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".html" || ext == ".htm"
}

// ParseFile reads and parses a markdown or HTML canon document
func (p *CanonParser) ParseFile(path string) (model.IndexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.IndexEntry{}, fmt.Errorf("read canon: %w", err)
	}

	text := string(data)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".html" || ext == ".htm" {
		text, err = HTMLToMarkdown(text)
		if err != nil {
			return model.IndexEntry{}, fmt.Errorf("parse canon html: %w", err)
		}
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.Parse(stem, text), nil
}

// Parse extracts an index entry from markdown canon text
func (p *CanonParser) Parse(file, text string) model.IndexEntry {
	entry := model.IndexEntry{
		File:       file,
		Name:       canonName(text),
		Status:     "UNKNOWN",
		Invariants: invariantLines(text),
	}

	if m := doiPattern.FindStringSubmatch(text); m != nil {
		entry.DOI = m[1]
	}
	if m := statusPattern.FindStringSubmatch(text); m != nil {
		entry.Status = strings.TrimRight(m[1], ",")
	}
	entry.Scope = firstGroup(scopePattern, text)
	entry.Fiduciary = firstGroup(fiduciaryPattern, text)
	entry.Evidence = firstGroup(evidencePattern, text)

	parts := append([]string{entry.Name, entry.Scope, entry.Fiduciary, entry.Evidence}, entry.Invariants...)
	indexText := strings.Join(parts, " ") + " " + strings.Join(bodyWords(text), " ")
	entry.TF = p.terms.Frequencies(indexText)

	return entry
}

// canonName takes the first heading-like line that is not an author or version line
func canonName(text string) string {
	name := ""
	for _, line := range strings.Split(text, "\n") {
		clean := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if clean != "" && !strings.HasPrefix(clean, "Author") && !strings.HasPrefix(clean, "Version") {
			name = clean
			break
		}
	}
	name = strings.TrimSpace(trailingTagPattern.ReplaceAllString(name, ""))
	name = strings.TrimSpace(subtitlePattern.ReplaceAllString(name, ""))
	return name
}

// invariantLines returns up to four lines of the "The Invariant" section
func invariantLines(text string) []string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if invariantHeading.MatchString(strings.TrimRight(line, "\r")) {
			start = i + 1
			break
		}
	}

	invariants := []string{}
	if start < 0 {
		return invariants
	}

	for _, raw := range lines[start:] {
		if strings.HasPrefix(raw, "##") || strings.HasPrefix(raw, "---") {
			break
		}
		line := strings.TrimSpace(raw)
		if len(line) > 10 && len(line) < 150 && !strings.HasPrefix(line, "If you") {
			invariants = append(invariants, line)
		}
		if len(invariants) == maxIndexedInvariants {
			break
		}
	}
	return invariants
}

// bodyWords strips headings and bold labels and returns the leading body words
func bodyWords(text string) []string {
	body := headingLinePattern.ReplaceAllString(text, " ")
	body = boldPattern.ReplaceAllString(body, " ")
	words := strings.Fields(body)
	if len(words) > maxIndexedBodyWords {
		words = words[:maxIndexedBodyWords]
	}
	return words
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// HTMLToMarkdown renders the visible text of an HTML canon document using
// the markdown markers the canon parser understands: headings become "#"
// lines, bold text is wrapped in "**" and block elements end a line.
func HTMLToMarkdown(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				level := int(n.Data[1] - '0')
				buf.WriteString("\n" + strings.Repeat("#", level) + " " + strings.TrimSpace(textContent(n)) + "\n")
				return
			case "strong", "b":
				buf.WriteString("**" + strings.TrimSpace(textContent(n)) + "**")
				return
			case "hr":
				buf.WriteString("\n---\n")
				return
			case "br":
				buf.WriteString("\n")
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				if strings.TrimLeft(n.Data, " \t\n") != n.Data {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
				if strings.TrimRight(n.Data, " \t\n") != n.Data {
					buf.WriteString(" ")
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && isBlock(n.Data) {
			buf.WriteString("\n")
		}
	}

	walk(doc)
	return buf.String(), nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "section", "article", "blockquote", "tr", "table", "pre":
		return true
	}
	return false
}
