package termcore

import (
	"fmt"
	"image/color"
	"strings"
)

// scene is the vector description step 4 of the renderer builds: a
// full-canvas background rect, one text line per row, and an optional
// cursor rectangle. It's walked twice — once to emit real SVG (for
// debugging/tests), once to rasterize.
type scene struct {
	width, height       int
	cellWidth, lineHeight int
	padding             int
	background          color.RGBA
	foreground          color.RGBA
	lines               []string
	cursor              *cursorRect
}

type cursorRect struct {
	x, y, w, h int
	color      color.RGBA
}

const scenePadding = 20

func buildScene(state TerminalState, opts RenderOptions) *scene {
	stripped := StripANSI(state.Content)
	lines := strings.Split(string(stripped), "\n")
	maxRows := state.Dimensions.Rows
	if maxRows <= 0 {
		maxRows = len(lines)
	}
	if len(lines) > maxRows {
		lines = lines[:maxRows]
	}

	cellW := ceilDiv(opts.FontSize*6, 10) // ceil(fontSize*0.6)
	lineH := ceilDiv(opts.FontSize*12, 10) // ceil(fontSize*1.2)
	cols := state.Dimensions.Cols
	if cols <= 0 {
		cols = 80
	}
	rows := maxRows
	if rows <= 0 {
		rows = 24
	}

	bg, fg := themeColors(opts)

	sc := &scene{
		width:      cols*cellW + 2*scenePadding,
		height:     rows*lineH + 2*scenePadding,
		cellWidth:  cellW,
		lineHeight: lineH,
		padding:    scenePadding,
		background: bg,
		foreground: fg,
		lines:      lines,
	}

	if state.Cursor.Visible {
		sc.cursor = &cursorRect{
			x:     scenePadding + state.Cursor.X*cellW,
			y:     scenePadding + state.Cursor.Y*lineH,
			w:     cellW,
			h:     lineH,
			color: color.RGBA{R: fg.R, G: fg.G, B: fg.B, A: 96},
		}
	}

	return sc
}

func ceilDiv(num, den int) int {
	if num <= 0 {
		return 0
	}
	return (num + den - 1) / den
}

func themeColors(opts RenderOptions) (bg, fg color.RGBA) {
	switch opts.Theme {
	case "light":
		bg, fg = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}
	default: // "dark" and unrecognized values fall back to dark
		bg, fg = color.RGBA{R: 0x1e, G: 0x1e, B: 0x1e, A: 0xff}, color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	}
	if opts.Background != "" {
		if c, ok := parseHexColor(opts.Background); ok {
			bg = c
		}
	}
	return bg, fg
}

func parseHexColor(s string) (color.RGBA, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 0xff}, true
}

// SVG renders the scene as the reference vector encoding: a background
// rect, one <text> per line, and a translucent cursor rect when visible.
func (sc *scene) SVG() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d">`, sc.width, sc.height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="%s"/>`, sc.width, sc.height, hexOf(sc.background))
	for i, line := range sc.lines {
		y := sc.padding + (i+1)*sc.lineHeight
		fmt.Fprintf(&b, `<text x="%d" y="%d" fill="%s" xml:space="preserve">%s</text>`,
			sc.padding, y, hexOf(sc.foreground), xmlEscape(dropSurvivingControls(line)))
	}
	if sc.cursor != nil {
		fmt.Fprintf(&b, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" fill-opacity="%.2f"/>`,
			sc.cursor.x, sc.cursor.y, sc.cursor.w, sc.cursor.h, hexOf(sc.cursor.color), float64(sc.cursor.color.A)/255.0)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func hexOf(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// xmlEscape escapes the five XML special characters. Applied after ANSI
// stripping — stripping first avoids turning a stray ESC byte into invalid
// XML output.
func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// dropSurvivingControls removes any control bytes that survived ANSI
// stripping (e.g. a bare \r) before they reach XML text content.
func dropSurvivingControls(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
