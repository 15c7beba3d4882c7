package chatcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/playground/pkg/cliui"
	"github.com/papercomputeco/playground/pkg/stream"
)

// printer writes reply frames to the terminal as the assembler applies them.
type printer struct {
	w io.Writer

	answering bool
	lineOpen  bool
}

func (p *printer) reset() {
	p.answering, p.lineOpen = false, false
}

func (p *printer) observe(f stream.Frame) {
	switch f := f.(type) {
	case stream.ThinkingFrame:
		if p.answering {
			return
		}
		p.dim(f.Text)

	case stream.ContentFrame:
		if !p.answering {
			if p.lineOpen {
				fmt.Fprintln(p.w)
			}
			fmt.Fprint(p.w, assistantPrompt)
			p.answering = true
		}
		fmt.Fprint(p.w, f.Text)
	}
}

// dim prints thinking text line by line so styling never spans a newline.
func (p *printer) dim(text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			fmt.Fprintln(p.w)
			p.lineOpen = false
		}
		if line == "" {
			continue
		}
		if !p.lineOpen {
			fmt.Fprint(p.w, "  ")
			p.lineOpen = true
		}
		fmt.Fprint(p.w, cliui.ThinkingStyle.Render(line))
	}
}

// finish ends the answer line.
func (p *printer) finish() {
	if p.answering || p.lineOpen {
		fmt.Fprintln(p.w)
	}
}
