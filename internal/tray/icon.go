package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	iconOnce  sync.Once
	iconBytes []byte
)

// getIcon returns a 22x22 template PNG: a prompt chevron and cursor bar.
func getIcon() []byte {
	iconOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, 22, 22))
		ink := color.NRGBA{A: 0xff}
		// ">"
		for i := 0; i < 5; i++ {
			img.Set(4+i, 6+i, ink)
			img.Set(5+i, 6+i, ink)
			img.Set(4+i, 16-i, ink)
			img.Set(5+i, 16-i, ink)
		}
		// "_"
		for x := 11; x < 18; x++ {
			img.Set(x, 15, ink)
			img.Set(x, 16, ink)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			iconBytes = buf.Bytes()
		}
	})
	return iconBytes
}
