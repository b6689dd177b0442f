package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sys/unix"

	"github.com/stridewm/stride/internal/models"
	"github.com/stridewm/stride/internal/types"
)

// Options controls the appearance of the workspace view.
type Options struct {
	UseUnicode bool
	ShowIDs    bool
	MaxWidth   int
	MaxHeight  int
}

// DefaultOptions sizes the view to the terminal and picks the richest
// character set it supports.
func DefaultOptions() Options {
	width, height := terminalSize()
	return Options{
		UseUnicode: supportsUnicode(),
		ShowIDs:    true,
		MaxWidth:   width,
		MaxHeight:  height - 4,
	}
}

// VisualizeWorkspace renders a workspace's windows as boxes scaled onto the
// terminal, preserving their arrangement on the screen.
func VisualizeWorkspace(name string, windows []models.WindowInfo, screen models.ScreenInfo, opts Options) string {
	header := fmt.Sprintf("Workspace %s on %s [%.0fx%.0f]\n",
		name, screen.Name, screen.Frame.Width, screen.Frame.Height)
	if len(windows) == 0 {
		return header + "(no windows)\n"
	}

	width := opts.MaxWidth
	if width < 20 {
		width = 20
	}
	height := opts.MaxHeight
	if height < 8 {
		height = 8
	}

	canvas := newCanvas(width, height, opts.UseUnicode)
	for _, win := range windows {
		x, y, w, h := canvas.mapRect(win.Frame, screen.Frame)
		canvas.drawBox(x, y, w, h)

		label := truncate(win.AppName, w-2)
		if opts.ShowIDs {
			label = truncate(fmt.Sprintf("%d %s", win.ID, win.AppName), w-2)
		}
		if win.IsFocused {
			label = "*" + truncate(label, w-3)
		}
		canvas.drawTextCentered(x+1, y+h/2, w-2, label)
	}

	footer := fmt.Sprintf("\n%d windows, focused: %s\n",
		len(windows), color.CyanString(focusedApp(windows)))
	return header + canvas.String() + footer
}

func focusedApp(windows []models.WindowInfo) string {
	for _, win := range windows {
		if win.IsFocused {
			return win.AppName
		}
	}
	return "none"
}

// boxChars is the character set for drawing window outlines.
type boxChars struct {
	tl, tr, bl, br, h, v rune
}

var (
	asciiChars   = boxChars{'+', '+', '+', '+', '-', '|'}
	unicodeChars = boxChars{'┌', '┐', '└', '┘', '─', '│'}
)

// canvas is a 2D character buffer the workspace view is drawn into.
type canvas struct {
	width  int
	height int
	buffer [][]rune
	chars  boxChars
}

func newCanvas(width, height int, useUnicode bool) *canvas {
	buffer := make([][]rune, height)
	for i := range buffer {
		buffer[i] = make([]rune, width)
		for j := range buffer[i] {
			buffer[i][j] = ' '
		}
	}
	chars := asciiChars
	if useUnicode {
		chars = unicodeChars
	}
	return &canvas{width: width, height: height, buffer: buffer, chars: chars}
}

// mapRect scales a screen-space frame into canvas coordinates. The vertical
// scale is halved because terminal cells are roughly twice as tall as wide.
func (c *canvas) mapRect(frame, screen types.Rect) (x, y, w, h int) {
	if screen.Width <= 0 || screen.Height <= 0 {
		return 0, 0, 3, 2
	}
	scaleX := float64(c.width) / screen.Width
	scaleY := float64(c.height) / screen.Height

	x = int((frame.X - screen.X) * scaleX)
	y = int((frame.Y - screen.Y) * scaleY)
	w = int(frame.Width * scaleX)
	h = int(frame.Height * scaleY)

	// Boxes below the drawable minimum disappear entirely, so clamp up
	if w < 3 {
		w = 3
	}
	if h < 2 {
		h = 2
	}
	if x+w > c.width {
		w = c.width - x
	}
	if y+h > c.height {
		h = c.height - y
	}
	return x, y, w, h
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		c.buffer[y][x] = r
	}
}

func (c *canvas) drawBox(x, y, w, h int) {
	if w < 2 || h < 2 {
		return
	}
	c.set(x, y, c.chars.tl)
	c.set(x+w-1, y, c.chars.tr)
	c.set(x, y+h-1, c.chars.bl)
	c.set(x+w-1, y+h-1, c.chars.br)
	for i := 1; i < w-1; i++ {
		c.set(x+i, y, c.chars.h)
		c.set(x+i, y+h-1, c.chars.h)
	}
	for i := 1; i < h-1; i++ {
		c.set(x, y+i, c.chars.v)
		c.set(x+w-1, y+i, c.chars.v)
	}
}

func (c *canvas) drawText(x, y int, text string) {
	for i, r := range []rune(text) {
		c.set(x+i, y, r)
	}
}

func (c *canvas) drawTextCentered(x, y, width int, text string) {
	runes := []rune(text)
	if len(runes) >= width {
		c.drawText(x, y, string(runes[:width]))
		return
	}
	c.drawText(x+(width-len(runes))/2, y, text)
}

func (c *canvas) String() string {
	var sb strings.Builder
	for i, row := range c.buffer {
		for _, cell := range row {
			sb.WriteRune(cell)
		}
		if i < len(c.buffer)-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

func terminalSize() (int, int) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24
	}
	return int(ws.Col), int(ws.Row)
}

func supportsUnicode() bool {
	for _, env := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(env); v != "" {
			return strings.Contains(strings.ToUpper(v), "UTF-8") ||
				strings.Contains(strings.ToUpper(v), "UTF8")
		}
	}
	return false
}
