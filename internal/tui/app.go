// Package tui hosts the canvas in a terminal. Terminal cells stand in for
// pixels at a fixed cell size; mouse drags and the wheel go through the
// gesture controller and bubbletea ticks drive the frame scheduler.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"daycanvas/internal/frame"
	"daycanvas/internal/gesture"
	"daycanvas/internal/model"
	"daycanvas/internal/navigator"
	"daycanvas/internal/place"
	"daycanvas/internal/render"
	"daycanvas/internal/viewport"
)

// Cell size in canvas pixels.
const (
	cellW = 8.0
	cellH = 16.0
	// header and footer rows
	chromeRows = 2
	scrollStep = 3 * cellH
)

type frameMsg time.Time

type Model struct {
	nav      *navigator.Navigator
	gestures *gesture.Controller
	frames   *frame.Scheduler
	days     render.DayProvider
	opts     place.Options
	now      func() time.Time

	width, height int
	lastDecision  string
}

// New wires a terminal model around nav. Place options are given in canvas
// pixels like everywhere else.
func New(nav *navigator.Navigator, th gesture.Thresholds, days render.DayProvider, opts place.Options, frameOpts ...frame.Option) Model {
	m := Model{
		nav:      nav,
		gestures: gesture.New(nav, th),
		frames:   frame.New(frameOpts...),
		days:     days,
		opts:     opts,
		now:      time.Now,
	}
	nav.Attach(m.frames)
	m.frames.Start()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frames.Interval(), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.nav.SetViewport(viewport.Viewport{
			Width:  float64(msg.Width) * cellW,
			Height: float64(max(msg.Height-chromeRows, 0)) * cellH,
		})
		return m, nil

	case frameMsg:
		m.frames.Tick(time.Time(msg))
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "left", "h":
			m.nav.Previous()
		case "right", "l":
			m.nav.Next()
		case "t":
			m.nav.Today()
		case "up", "k":
			m.nav.Scroll(-scrollStep)
		case "down", "j":
			m.nav.Scroll(scrollStep)
		case "esc":
			m.gestures.Cancel()
		}
		return m, nil

	case tea.MouseMsg:
		return m.mouse(msg), nil
	}
	return m, nil
}

func (m Model) mouse(msg tea.MouseMsg) Model {
	x := float64(msg.X) * cellW
	y := float64(msg.Y-1) * cellH
	now := m.now()

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.gestures.Wheel(-scrollStep)
	case msg.Button == tea.MouseButtonWheelDown:
		m.gestures.Wheel(scrollStep)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.gestures.PointerDown(x, y, now)
	case msg.Action == tea.MouseActionMotion:
		m.gestures.PointerMove(x, y, now)
	case msg.Action == tea.MouseActionRelease:
		if d, ok := m.gestures.PointerUp(x, y, now); ok {
			m.lastDecision = fmt.Sprintf("%s → %+d", d.Action, d.Direction)
		}
	}
	return m
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= chromeRows {
		return "sizing…"
	}
	snap := m.nav.Snapshot()
	header := styleHeader.Render(snap.Date) + styleMuted.Render("  "+snap.State.String())

	rows := m.height - chromeRows
	grid := newCanvas(m.width, rows)
	sc := render.Build(m.nav, m.days, m.opts)
	for _, d := range sc.Days {
		m.drawDay(grid, sc, d)
	}

	footer := "←/→ page  t today  ↑/↓ scroll  drag to swipe  q quit"
	if m.lastDecision != "" {
		footer += "  last: " + m.lastDecision
	}
	return header + "\n" + grid.String() + "\n" + styleMuted.Render(footer)
}

func (m Model) drawDay(c *canvas, sc render.Scene, d render.Day) {
	ppm := sc.Space.PixelsPerMinute()
	left := cellCol(d.Left)
	gutter := cellCol(m.opts.Gutter)

	for row := 0; row < c.h && ppm > 0; row++ {
		// Minute at the top and bottom of this row.
		top := (float64(row)*cellH + sc.Camera.Y) / ppm
		bottom := (float64(row+1)*cellH + sc.Camera.Y) / ppm
		hour := math.Ceil(top/60) * 60
		if hour >= bottom || hour >= model.MinutesPerDay {
			continue
		}
		c.text(left, row, model.ClockString(int(hour)), styleMuted)
		c.fill(left+gutter, row, cellCol(sc.Viewport.Width)-gutter, '─', styleGrid)
	}

	for _, b := range d.Blocks {
		x, y := cellCol(b.Left), cellRow(b.Top)
		w := max(1, int(math.Round(b.Width/cellW)))
		h := max(1, int(math.Round(b.Height/cellH)))
		st := blockStyle(b.Kind)
		for r := y; r < y+h; r++ {
			c.fill(x, r, w, ' ', st)
		}
		c.text(x, y, truncate(" "+b.Title, w), st)
	}
}

func cellCol(px float64) int { return int(math.Floor(px / cellW)) }
func cellRow(px float64) int { return int(math.Floor(px / cellH)) }

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		r = r[:w]
	}
	return string(r)
}

// canvas is a grid of styled runes. Writes outside it are clipped.
type canvas struct {
	w, h  int
	cells [][]cell
}

type cell struct {
	r     rune
	style *styleRef
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]cell, h)}
	for i := range c.cells {
		c.cells[i] = make([]cell, w)
		for j := range c.cells[i] {
			c.cells[i][j].r = ' '
		}
	}
	return c
}

func (c *canvas) set(x, y int, r rune, st *styleRef) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = cell{r: r, style: st}
}

func (c *canvas) fill(x, y, n int, r rune, st styleLike) {
	ref := &styleRef{st}
	for i := 0; i < n; i++ {
		c.set(x+i, y, r, ref)
	}
}

func (c *canvas) text(x, y int, s string, st styleLike) {
	ref := &styleRef{st}
	for i, r := range []rune(s) {
		c.set(x+i, y, r, ref)
	}
}

// String renders each row, grouping runs that share a style.
func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < len(row); {
			st := row[x].style
			var run []rune
			for x < len(row) && row[x].style == st {
				run = append(run, row[x].r)
				x++
			}
			if st == nil {
				b.WriteString(string(run))
			} else {
				b.WriteString(st.Render(string(run)))
			}
		}
	}
	return b.String()
}

type styleLike interface{ Render(...string) string }

type styleRef struct{ styleLike }
