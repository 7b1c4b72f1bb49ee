package render

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"daycanvas/internal/model"
)

// Palette maps a kind to its fill colour.
var Palette = map[model.Kind]string{
	model.KindEvent: "#4f7cac",
	model.KindTask:  "#c0843d",
	model.KindFocus: "#5e9a63",
	model.KindBreak: "#9a9a9a",
}

const (
	gridColor  = "#e2e2e2"
	labelColor = "#6b6b6b"
	fontFamily = "Helvetica, Arial, sans-serif"
)

// WriteSVG draws sc: hour grid, hour labels in the gutter, a date heading
// and one rectangle per block. The root element carries data-ready="true"
// so a headless browser can wait for it.
func WriteSVG(w io.Writer, sc Scene) error {
	vp := sc.Viewport
	var b strings.Builder

	b.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" data-ready="true">
`, px(vp.Width), px(vp.Height), px(vp.Width), px(vp.Height)))
	b.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>
`, px(vp.Width), px(vp.Height)))

	ppm := sc.Space.PixelsPerMinute()
	for _, d := range sc.Days {
		if ppm > 0 {
			for h := 0; h <= 24; h++ {
				y := float64(h*60)*ppm - sc.Camera.Y
				if y < -1 || y > vp.Height+1 {
					continue
				}
				b.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>
`, d.Left+sc.Options.Gutter, y, d.Left+vp.Width, y, gridColor))
				if sc.Options.Gutter > 0 && h < 24 {
					b.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="%s" font-size="11" fill="%s">%s</text>
`, d.Left+4, y+12, fontFamily, labelColor, model.ClockString(h*60)))
				}
			}
		}

		for _, blk := range d.Blocks {
			fill := Palette[blk.Kind]
			if fill == "" {
				fill = Palette[model.KindEvent]
			}
			b.WriteString(fmt.Sprintf(`<g data-id="%s"><rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="3" fill="%s" fill-opacity="0.85"/>`,
				html.EscapeString(blk.ID), blk.Left, blk.Top, blk.Width, blk.Height, fill))
			if blk.Height >= 14 && blk.Title != "" {
				b.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-family="%s" font-size="12" fill="#ffffff">%s</text>`,
					blk.Left+4, blk.Top+13, fontFamily, html.EscapeString(blk.Title)))
			}
			b.WriteString("</g>\n")
		}

		b.WriteString(fmt.Sprintf(`<text x="%.1f" y="16" font-family="%s" font-size="13" font-weight="bold" fill="#333333">%s</text>
`, d.Left+sc.Options.Gutter+4, fontFamily, d.Date))
	}

	b.WriteString("</svg>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func px(f float64) int {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}
