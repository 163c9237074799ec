package feedback

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/j-veylop/omnicoach/internal/logger"
)

// markdown renders feedback text, falling back to the raw text when no
// renderer is available.
type markdown struct {
	renderer *glamour.TermRenderer
	width    int
}

func newMarkdown() *markdown {
	md := &markdown{}
	md.setWidth(80)
	return md
}

func (md *markdown) setWidth(width int) {
	if width == md.width && md.renderer != nil {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logger.Warn("markdown renderer unavailable", "error", err)
		md.renderer = nil
		return
	}
	md.renderer = r
	md.width = width
}

func (md *markdown) render(content string) string {
	if md.renderer == nil {
		return content
	}
	out, err := md.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
