package trace

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strings"

	"github.com/chewxy/math32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pleimann/gesture-pad/internal/pointer"
)

const (
	renderMargin = 16
	markerRadius = 3
)

// pathShades cycles the gray level used for each pointer's path.
var pathShades = []uint8{255, 200, 150, 110}

// Renderer draws traces to a grayscale image
type Renderer struct {
	width  int
	height int
	img    *image.Gray
	face   font.Face
}

// NewRenderer creates a new trace renderer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		width:  width,
		height: height,
		img:    image.NewGray(image.Rect(0, 0, width, height)),
		face:   basicfont.Face7x13,
	}
}

// Clear clears the image to black
func (r *Renderer) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.Black, image.Point{}, draw.Src)
}

// DrawText draws text with its baseline at y
func (r *Renderer) DrawText(x, y int, text string) {
	r.drawText(x, y, text, color.Gray{Y: 255})
}

func (r *Renderer) drawText(x, y int, text string, c color.Gray) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// DrawTextWrapped draws text with word wrapping and returns the height used
func (r *Renderer) DrawTextWrapped(x, y, maxWidth int, text string) int {
	lineHeight := r.lineHeight()
	currentY := y
	line := ""

	for _, word := range strings.Fields(text) {
		testLine := line
		if testLine != "" {
			testLine += " "
		}
		testLine += word

		if font.MeasureString(r.face, testLine).Ceil() > maxWidth && line != "" {
			r.DrawText(x, currentY, line)
			currentY += lineHeight
			line = word
		} else {
			line = testLine
		}
	}

	if line != "" {
		r.DrawText(x, currentY, line)
		currentY += lineHeight
	}

	return currentY - y
}

func (r *Renderer) lineHeight() int {
	return r.face.Metrics().Height.Ceil()
}

// DrawRect draws a rectangle outline
func (r *Renderer) DrawRect(x, y, width, height int) {
	for i := x; i < x+width; i++ {
		r.img.SetGray(i, y, color.Gray{Y: 255})
		r.img.SetGray(i, y+height-1, color.Gray{Y: 255})
	}
	for i := y; i < y+height; i++ {
		r.img.SetGray(x, i, color.Gray{Y: 255})
		r.img.SetGray(x+width-1, i, color.Gray{Y: 255})
	}
}

// FillRect draws a filled rectangle
func (r *Renderer) FillRect(x, y, width, height int, shade uint8) {
	for py := y; py < y+height; py++ {
		for px := x; px < x+width; px++ {
			r.img.SetGray(px, py, color.Gray{Y: shade})
		}
	}
}

// SetPixel sets a single pixel
func (r *Renderer) SetPixel(x, y int, shade uint8) {
	r.img.SetGray(x, y, color.Gray{Y: shade})
}

// Pixel returns the gray level at x, y
func (r *Renderer) Pixel(x, y int) uint8 {
	return r.img.GrayAt(x, y).Y
}

// DrawLine draws a line between two points using Bresenham's algorithm
func (r *Renderer) DrawLine(x0, y0, x1, y1 int, shade uint8) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		r.SetPixel(x0, y0, shade)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Image returns the rendered image
func (r *Renderer) Image() *image.Gray {
	return r.img
}

// WritePNG encodes the image as PNG
func (r *Renderer) WritePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// Width returns the renderer width
func (r *Renderer) Width() int {
	return r.width
}

// Height returns the renderer height
func (r *Renderer) Height() int {
	return r.height
}

// RenderScript clears the image and draws every pointer path in s, scaled
// to fit above a list of notes. Pressed segments are drawn solid and a
// marker is placed wherever a pointer goes down.
func (r *Renderer) RenderScript(s *Script, notes []Note) {
	r.Clear()

	notesHeight := len(notes) * r.lineHeight()
	if notesHeight > r.height/3 {
		notesHeight = r.height / 3
	}
	area := image.Rect(renderMargin, renderMargin, r.width-renderMargin, r.height-renderMargin-notesHeight)
	r.DrawRect(area.Min.X-1, area.Min.Y-1, area.Dx()+2, area.Dy()+2)

	project := fitBounds(s, area)

	type penState struct {
		at      image.Point
		pressed bool
	}
	pens := make(map[int]*penState)
	labelled := make(map[int]bool)

	for _, step := range s.Steps {
		shade := pathShades[step.Pointer%len(pathShades)]
		switch Op(strings.ToLower(string(step.Op))) {
		case OpCreate:
			pens[step.Pointer] = &penState{at: project(step.Position())}
		case OpDown:
			pen := pens[step.Pointer]
			if pen == nil {
				continue
			}
			pen.pressed = true
			r.FillRect(pen.at.X-markerRadius, pen.at.Y-markerRadius, 2*markerRadius+1, 2*markerRadius+1, shade)
			if !labelled[step.Pointer] {
				labelled[step.Pointer] = true
				r.drawText(pen.at.X+markerRadius+2, pen.at.Y-markerRadius, fmt.Sprintf("P%d", step.Pointer), color.Gray{Y: shade})
			}
		case OpMove:
			pen := pens[step.Pointer]
			if pen == nil {
				continue
			}
			next := project(step.Position())
			if pen.pressed {
				r.DrawLine(pen.at.X, pen.at.Y, next.X, next.Y, shade)
			} else {
				r.SetPixel(next.X, next.Y, shade/2)
			}
			pen.at = next
		case OpUp:
			if pen := pens[step.Pointer]; pen != nil {
				pen.pressed = false
			}
		case OpRemove:
			delete(pens, step.Pointer)
		}
	}

	y := area.Max.Y + renderMargin + r.face.Metrics().Ascent.Ceil()
	for _, n := range notes {
		if y > r.height {
			break
		}
		r.DrawText(renderMargin, y, n.String())
		y += r.lineHeight()
	}
}

// fitBounds returns a projection that maps the positions used by s into
// area, preserving aspect ratio.
func fitBounds(s *Script, area image.Rectangle) func(pointer.Vec2) image.Point {
	minX, minY := math32.Inf(1), math32.Inf(1)
	maxX, maxY := math32.Inf(-1), math32.Inf(-1)
	for _, step := range s.Steps {
		switch Op(strings.ToLower(string(step.Op))) {
		case OpCreate, OpMove:
			minX = math32.Min(minX, step.X)
			minY = math32.Min(minY, step.Y)
			maxX = math32.Max(maxX, step.X)
			maxY = math32.Max(maxY, step.Y)
		}
	}
	if math32.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}

	spanX := math32.Max(maxX-minX, 1)
	spanY := math32.Max(maxY-minY, 1)
	scale := math32.Min(float32(area.Dx()-1)/spanX, float32(area.Dy()-1)/spanY)

	return func(v pointer.Vec2) image.Point {
		return image.Point{
			X: area.Min.X + int(math32.Round((v.X-minX)*scale)),
			Y: area.Min.Y + int(math32.Round((v.Y-minY)*scale)),
		}
	}
}
