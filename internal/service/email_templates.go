package service

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/nuvoor/careadmin/internal/markdown"
)

//go:embed templates/*.md
var templatesFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.md"))

// renderedEmail holds both alternatives of one message.
type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

type passwordResetData struct {
	AppName  string
	ResetURL string
	ValidFor string
}

// renderEmail executes the named markdown template and renders it to HTML.
// The subject comes from the template frontmatter.
func renderEmail(parser *markdown.Parser, name string, data any) (*renderedEmail, error) {
	var src bytes.Buffer
	err := emailTemplates.ExecuteTemplate(&src, name, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute email template %s: %w", name, err)
	}

	doc, err := parser.Render(src.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to render email template %s: %w", name, err)
	}

	return &renderedEmail{
		Subject: doc.String("subject"),
		Text:    string(doc.Body),
		HTML:    string(doc.HTML),
	}, nil
}

func passwordResetEmail(parser *markdown.Parser, resetURL, appName string, validFor time.Duration) (*renderedEmail, error) {
	return renderEmail(parser, "password_reset.md", passwordResetData{
		AppName:  appName,
		ResetURL: resetURL,
		ValidFor: humanDuration(validFor),
	})
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		if d == time.Minute {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", d/time.Minute)
	}
	return d.String()
}
