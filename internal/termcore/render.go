package termcore

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

// RenderOptions configures Screenshot Terminal (C7). Zero values take the
// spec's documented defaults: format png, fontSize 14, fontFamily
// "monospace", theme "dark", quality 90 (jpeg only).
type RenderOptions struct {
	Format     string // "png" or "jpeg"
	FontSize   int
	FontFamily string
	Theme      string // "dark" or "light"
	Background string // optional hex override, e.g. "#102030"
	Quality    int    // jpeg only, 1-100
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Format == "" {
		o.Format = "png"
	}
	if o.FontSize <= 0 {
		o.FontSize = 14
	}
	if o.FontFamily == "" {
		o.FontFamily = "monospace"
	}
	if o.Theme == "" {
		o.Theme = "dark"
	}
	if o.Quality <= 0 {
		o.Quality = 90
	}
	return o
}

// Screenshot renders sessionId's current terminal state to a PNG or JPEG
// image, per the pipeline: ANSI-strip, split lines, size the canvas,
// build an intermediate scene, rasterize with the embedded bitmap font.
func (sup *Supervisor) Screenshot(id string, opts RenderOptions) ([]byte, error) {
	sess, err := sup.Get(id)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if opts.Format != "png" && opts.Format != "jpeg" {
		return nil, newErr(KindScreenshotError, "unsupported format %q", opts.Format)
	}

	state := sess.Snapshot()
	sc := buildScene(state, opts)
	img := sc.rasterize()

	var buf bytes.Buffer
	switch opts.Format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, newErr(KindScreenshotError, "png encode: %v", err)
		}
	case "jpeg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: opts.Quality}); err != nil {
			return nil, newErr(KindScreenshotError, "jpeg encode: %v", err)
		}
	}
	return buf.Bytes(), nil
}

// rasterize walks the scene once, drawing the background, every glyph of
// every line via the embedded bitmap font, and the cursor block if present.
func (sc *scene) rasterize() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, sc.width, sc.height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: sc.background}, image.Point{}, draw.Src)

	for row, line := range sc.lines {
		baseY := sc.padding + row*sc.lineHeight
		col := 0
		for _, r := range line {
			if r < 0x20 || r == 0x7F {
				col++
				continue
			}
			baseX := sc.padding + col*sc.cellWidth
			drawGlyph(img, baseX, baseY, sc.cellWidth, sc.lineHeight, glyphFor(r), sc.foreground)
			col++
		}
	}

	if sc.cursor != nil {
		draw.Draw(img, image.Rect(sc.cursor.x, sc.cursor.y, sc.cursor.x+sc.cursor.w, sc.cursor.y+sc.cursor.h),
			&image.Uniform{C: sc.cursor.color}, image.Point{}, draw.Over)
	}

	return img
}

// drawGlyph scales the 5x7 bitmap up to fill a cellWidth x lineHeight box,
// leaving a one-pixel margin on the right/bottom where the cell is larger
// than the glyph's natural size.
func drawGlyph(img *image.RGBA, x, y, cellWidth, lineHeight int, rows [7]string, fg color.RGBA) {
	const glyphCols, glyphRowsN = 5, 7
	cellW := cellWidth - 1
	cellH := lineHeight - 1
	if cellW < glyphCols {
		cellW = glyphCols
	}
	if cellH < glyphRowsN {
		cellH = glyphRowsN
	}

	for gy := 0; gy < glyphRowsN; gy++ {
		row := rows[gy]
		for gx := 0; gx < glyphCols && gx < len(row); gx++ {
			if row[gx] != '#' {
				continue
			}
			px0 := x + (gx*cellW)/glyphCols
			px1 := x + ((gx+1)*cellW)/glyphCols
			py0 := y + (gy*cellH)/glyphRowsN
			py1 := y + ((gy+1)*cellH)/glyphRowsN
			if px1 <= px0 {
				px1 = px0 + 1
			}
			if py1 <= py0 {
				py1 = py0 + 1
			}
			draw.Draw(img, image.Rect(px0, py0, px1, py1), &image.Uniform{C: fg}, image.Point{}, draw.Src)
		}
	}
}
