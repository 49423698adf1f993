package generator

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/styleguide-tools/stylepub/internal/logfields"
)

// Native is an in-process literate renderer used when no external generator
// binary is available. It splits the annotated document into commentary/code
// section pairs, renders the commentary as Markdown and emits a single HTML
// page named after the source file.
type Native struct {
	title         string
	commentPrefix string
}

// NewNative creates the in-process renderer.
func NewNative(title, commentPrefix string) *Native {
	if commentPrefix == "" {
		commentPrefix = "//"
	}
	return &Native{title: title, commentPrefix: commentPrefix}
}

// Section is one commentary/code pair from the annotated document.
type Section struct {
	Docs string
	Code string
}

// SplitSections separates annotation lines (those starting with the comment
// prefix) from code lines. A code line following commentary closes the
// current section; the next annotation line opens a new one.
func SplitSections(src []byte, commentPrefix string) []Section {
	lines := strings.Split(string(src), "\n")

	var sections []Section
	var docs, code []string
	inCode := false

	flush := func() {
		d := strings.Join(docs, "\n")
		c := strings.TrimRight(strings.Join(code, "\n"), " \t\n")
		if strings.TrimSpace(d) != "" || c != "" {
			sections = append(sections, Section{Docs: d, Code: c})
		}
		docs, code = nil, nil
	}

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, commentPrefix) {
			if inCode {
				flush()
				inCode = false
			}
			doc := strings.TrimPrefix(trimmed, commentPrefix)
			doc = strings.TrimPrefix(doc, " ")
			docs = append(docs, doc)
		} else {
			if strings.TrimSpace(line) != "" {
				inCode = true
			}
			code = append(code, line)
		}
	}
	flush()

	return sections
}

type renderedSection struct {
	Anchor string
	Docs   template.HTML
	Code   string
}

type tocEntry struct {
	Anchor string
	Title  string
	Level  int
}

type pageData struct {
	Title    string
	TOC      []tocEntry
	Sections []renderedSection
}

// Render produces outputDir/<source base>.html.
func (n *Native) Render(ctx context.Context, source, outputDir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read content document: %w", err)
	}

	sections := SplitSections(data, n.commentPrefix)
	if len(sections) == 0 {
		return fmt.Errorf("content document %s has no renderable sections", source)
	}

	md := goldmark.New(goldmark.WithParserOptions(parser.WithAutoHeadingID()))
	pctx := parser.NewContext(parser.WithIDs(newSlugIDs()))

	page := pageData{Title: n.title}
	for i, section := range sections {
		body := []byte(section.Docs)
		doc := md.Parser().Parse(text.NewReader(body), parser.WithContext(pctx))

		page.TOC = append(page.TOC, collectHeadings(doc, body)...)

		var buf bytes.Buffer
		if err := md.Renderer().Render(&buf, body, doc); err != nil {
			return fmt.Errorf("failed to render section %d: %w", i+1, err)
		}

		page.Sections = append(page.Sections, renderedSection{
			Anchor: fmt.Sprintf("section-%d", i+1),
			Docs:   template.HTML(buf.String()),
			Code:   section.Code,
		})
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	outPath := filepath.Join(outputDir, htmlName(source))
	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := pageTemplate.Execute(file, page); err != nil {
		return fmt.Errorf("failed to execute page template: %w", err)
	}

	slog.Info("Rendered documentation natively",
		logfields.Source(source),
		logfields.Path(outPath),
		slog.Int("sections", len(page.Sections)))
	return nil
}

// collectHeadings pulls heading text and generated anchors out of a parsed
// commentary block for the table of contents.
func collectHeadings(doc gmast.Node, source []byte) []tocEntry {
	var entries []tocEntry
	_ = gmast.Walk(doc, func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		heading, ok := node.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		anchor := ""
		if id, found := heading.AttributeString("id"); found {
			if b, isBytes := id.([]byte); isBytes {
				anchor = string(b)
			}
		}
		entries = append(entries, tocEntry{
			Anchor: anchor,
			Title:  string(heading.Text(source)),
			Level:  heading.Level,
		})
		return gmast.WalkSkipChildren, nil
	})
	return entries
}

// htmlName maps the source filename onto its rendered counterpart.
func htmlName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

// slugIDs implements parser.IDs, generating heading anchors via Slugify and
// deduplicating repeats with a numeric suffix.
type slugIDs struct {
	used map[string]bool
}

func newSlugIDs() *slugIDs {
	return &slugIDs{used: map[string]bool{}}
}

func (s *slugIDs) Generate(value []byte, _ gmast.NodeKind) []byte {
	base := Slugify(string(value))
	if base == "" {
		base = "heading"
	}
	candidate := base
	for i := 1; s.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	s.used[candidate] = true
	return []byte(candidate)
}

func (s *slugIDs) Put(value []byte) {
	s.used[string(value)] = true
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { margin: 0; font: 15px/1.6 -apple-system, "Segoe UI", sans-serif; color: #222; }
nav.toc { padding: 1em 2em; border-bottom: 1px solid #ddd; background: #fafafa; }
nav.toc a { margin-right: 1em; color: #336; }
section { display: flex; border-bottom: 1px solid #eee; }
section .docs { width: 45%; padding: 1em 2em; }
section pre { width: 55%; margin: 0; padding: 1em 2em; background: #f6f6f6; overflow-x: auto; }
code { font: 13px/1.5 "SF Mono", Menlo, monospace; }
</style>
</head>
<body>
{{if .TOC}}<nav class="toc">{{range .TOC}}<a href="#{{.Anchor}}">{{.Title}}</a>{{end}}</nav>{{end}}
{{range .Sections}}<section id="{{.Anchor}}">
<div class="docs">{{.Docs}}</div>
<pre><code>{{.Code}}</code></pre>
</section>
{{end}}</body>
</html>
`))
