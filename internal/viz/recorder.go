package viz

import (
	"errors"
	"image"
	"image/color"
	"image/gif"
	"io"
)

var ErrNoFrames = errors.New("viz: no frames recorded")

// maxFrames bounds a recording to about a minute at 60 fps.
const maxFrames = 3600

// Recorder rasterizes canvas frames for an animated GIF.
type Recorder struct {
	frames []*image.Paletted
}

func (r *Recorder) Len() int { return len(r.frames) }

// Capture rasterizes the canvas, drawing each braille dot as a block of
// an 8x16 character cell.
func (r *Recorder) Capture(c *Canvas) {
	if len(r.frames) >= maxFrames {
		return
	}
	const charW, charH = 8, 16
	dotW, dotH := charW/2, charH/4
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), color.Palette{color.Black, color.White})

	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	r.frames = append(r.frames, img)
}

// Encode writes the frames as a looping GIF and resets the recorder.
func (r *Recorder) Encode(w io.Writer, delay int) error {
	if len(r.frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, delay)
	}
	r.frames = nil
	return gif.EncodeAll(w, &anim)
}

func (r *Recorder) Reset() { r.frames = nil }
