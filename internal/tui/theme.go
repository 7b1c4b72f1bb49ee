package tui

import (
	"github.com/charmbracelet/lipgloss"

	"daycanvas/internal/model"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	colorMuted = ac("240", "243")
	colorGrid  = ac("252", "237")

	styleHeader = lipgloss.NewStyle().Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleGrid   = lipgloss.NewStyle().Foreground(colorGrid)

	kindColors = map[model.Kind]lipgloss.AdaptiveColor{
		model.KindEvent: ac("#4f7cac", "#5b8cc2"),
		model.KindTask:  ac("#c0843d", "#d69a52"),
		model.KindFocus: ac("#5e9a63", "#6fb174"),
		model.KindBreak: ac("#9a9a9a", "#7a7a7a"),
	}
)

func blockStyle(k model.Kind) lipgloss.Style {
	c, ok := kindColors[k]
	if !ok {
		c = kindColors[model.KindEvent]
	}
	return lipgloss.NewStyle().Background(c).Foreground(ac("#ffffff", "#ffffff"))
}
