package cliui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const defaultMarkdownWidth = 80

type markdownKey struct {
	width int
	style string
}

// glamour renderers are costly to build and the tui re-renders the whole
// transcript on every frame, so they are kept per width and style.
var (
	markdownMu        sync.Mutex
	markdownRenderers = map[markdownKey]*glamour.TermRenderer{}
)

// RenderMarkdown renders content at the default width with the style picked
// from the terminal background.
func RenderMarkdown(content string) (string, error) {
	return RenderMarkdownStyle(content, defaultMarkdownWidth, "")
}

// RenderMarkdownWidth is RenderMarkdown wrapped at width columns.
func RenderMarkdownWidth(content string, width int) (string, error) {
	return RenderMarkdownStyle(content, width, "")
}

// RenderMarkdownStyle renders content with a glamour standard style such as
// "dark" or "light". An empty style detects the terminal background. On
// failure the content comes back unchanged together with the error.
func RenderMarkdownStyle(content string, width int, style string) (string, error) {
	if width <= 0 {
		width = defaultMarkdownWidth
	}

	markdownMu.Lock()
	defer markdownMu.Unlock()

	key := markdownKey{width: width, style: style}
	r, ok := markdownRenderers[key]
	if !ok {
		styleOpt := glamour.WithAutoStyle()
		if style != "" {
			styleOpt = glamour.WithStandardStyle(style)
		}

		var err error
		r, err = glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
		if err != nil {
			return content, err
		}
		markdownRenderers[key] = r
	}

	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}
