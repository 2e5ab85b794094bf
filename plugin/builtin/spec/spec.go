// Package spec implements SIGNIA's spec-document plugin: it normalizes an
// HTML or Markdown document (an API reference page, a design doc) into
// "section" entities, one per heading, using go-readability to strip
// boilerplate and html-to-markdown to produce deterministic section bodies.
package spec

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	mdplugin "github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/go-shiori/go-readability"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return "builtin-spec" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactSpec
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 20000}
}

var headingRe = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// Execute reads the single normalized document, runs it through
// go-readability to discard navigation/boilerplate when the input looks
// like full HTML, converts the resulting content to Markdown, then splits
// on headings to produce one "section" entity per heading — each carrying
// its heading level and slugified id, in document order (the source of
// document order here is byte position, never wall-clock or locale, so two
// runs over the same bytes always produce the same section sequence).
func (p *Plugin) Execute(_ context.Context, input *normalize.Input, config plugin.Config) (*irpkg.Graph, error) {
	if len(input.Files) == 0 {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "empty_spec_input")
	}
	content := input.Files[0].Content

	markdown, err := toMarkdown(content, sourceURL(config))
	if err != nil {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "unconvertible_spec_document").Wrap(err)
	}

	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactSpec, Name: "spec"}}

	matches := headingRe.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:   irpkg.EntityID("section", "root"),
			Kind: "section",
			Name: "root",
		})
		return g, nil
	}

	for i, m := range matches {
		level := len(headingRe.FindStringSubmatch(markdown[m[0]:m[1]])[1])
		title := strings.TrimSpace(markdown[m[4]:m[5]])
		slug := slugify(title)
		end := len(markdown)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(markdown[m[1]:end])
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:   irpkg.EntityID("section", slug),
			Kind: "section",
			Name: title,
			Attrs: map[string]irpkg.Value{
				"level":       int64(level),
				"body_length": int64(len(body)),
			},
		})
	}

	return g, nil
}

func sourceURL(config plugin.Config) string {
	if v, ok := config["source_url"].(string); ok {
		return v
	}
	return "about:blank"
}

func toMarkdown(content []byte, sourceURL string) (string, error) {
	if looksLikeHTML(content) {
		u, err := url.Parse(sourceURL)
		if err != nil {
			u = &url.URL{}
		}
		article, err := readability.FromReader(bytes.NewReader(content), u)
		if err == nil {
			content = []byte(article.Content)
		}
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(mdplugin.GitHubFlavored())
	return converter.ConvertString(string(content))
}

func looksLikeHTML(content []byte) bool {
	trimmed := bytes.TrimSpace(content)
	return bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype")) ||
		bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html"))
}

func slugify(title string) string {
	lower := strings.ToLower(title)
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
