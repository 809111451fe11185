// Package markdown renders markdown documents with YAML frontmatter into
// HTML. Outbound email bodies are written this way.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

const fence = "---"

// Document is a rendered markdown source.
type Document struct {
	Meta map[string]any
	Body []byte // markdown source without the frontmatter block
	HTML []byte
}

// String returns the frontmatter value for key, or "" if absent.
func (d *Document) String(key string) string {
	v, ok := d.Meta[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts source to HTML and decodes its frontmatter.
func (p *Parser) Render(source []byte) (*Document, error) {
	context := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(context))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]any)
	data := frontmatter.Get(context)
	if data != nil {
		err = data.Decode(&meta)
		if err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}

	return &Document{
		Meta: meta,
		Body: stripFrontmatter(source),
		HTML: buf.Bytes(),
	}, nil
}

// stripFrontmatter drops a leading "---" delimited block.
func stripFrontmatter(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimSpace(lines[0])) != fence {
		return source
	}
	for i := 1; i < len(lines); i++ {
		if string(bytes.TrimSpace(lines[i])) == fence {
			return bytes.TrimLeft(bytes.Join(lines[i+1:], nil), "\n")
		}
	}
	return source
}
