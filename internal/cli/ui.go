package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	colorCyan   = lipgloss.Color("36")  // Teal - structure
	colorGreen  = lipgloss.Color("35")  // Green - automation
	colorYellow = lipgloss.Color("220") // Amber - raw code
	colorBlue   = lipgloss.Color("75")  // Light blue - control flow
	colorWhite  = lipgloss.Color("255") // Bright white - calls
	colorGray   = lipgloss.Color("245") // Gray - slot names
	colorDim    = lipgloss.Color("240") // Dim gray - ids
)

var categoryColors = map[string]lipgloss.TerminalColor{
	"structure":  colorCyan,
	"control":    colorBlue,
	"automation": colorGreen,
	"call":       colorWhite,
	"code":       colorYellow,
}

// palette holds styles bound to one output. The renderer drops colors when
// the output is not a terminal, so redirected output stays plain text.
type palette struct {
	title lipgloss.Style
	slot  lipgloss.Style
	id    lipgloss.Style
	value lipgloss.Style
	kinds map[string]lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	p := &palette{
		title: r.NewStyle().Bold(true).Foreground(colorCyan),
		slot:  r.NewStyle().Italic(true).Foreground(colorGray),
		id:    r.NewStyle().Foreground(colorDim),
		value: r.NewStyle().Foreground(colorWhite),
		kinds: make(map[string]lipgloss.Style, len(categoryColors)),
	}
	for category, color := range categoryColors {
		p.kinds[category] = r.NewStyle().Bold(true).Foreground(color)
	}
	return p
}

// kind styles a kind name by its catalog category.
func (p *palette) kind(category, text string) string {
	if s, ok := p.kinds[category]; ok {
		return s.Render(text)
	}
	return text
}
