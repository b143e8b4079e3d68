package app

import (
	"image"
	"testing"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/fes_gait/internal/telemetry"
)

func litPixels(img *image1bit.VerticalLSB, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderStatusUsesFourRows(t *testing.T) {
	img := renderStatus(telemetry.Status{
		Primed: true, Mode: "level_walking", Phase: "swing", Stimulating: true,
		AvgSwingMs: 410, AvgStanceMs: 590, SwingCount: 12,
	}, true)
	if img.Bounds() != image.Rect(0, 0, displayWidth, displayHeight) {
		t.Fatalf("bounds: %v", img.Bounds())
	}
	for row := 0; row < 4; row++ {
		band := image.Rect(0, 13*row+1, displayWidth, 13*(row+1)+3)
		if litPixels(img, band) == 0 {
			t.Fatalf("row %d is blank", row)
		}
	}
}

func TestRenderWaiting(t *testing.T) {
	waiting := renderStatus(telemetry.Status{}, false)
	if litPixels(waiting, image.Rect(0, 30, displayWidth, displayHeight)) != 0 {
		t.Fatal("waiting screen should only use the first two rows")
	}
	if litPixels(waiting, waiting.Bounds()) == 0 {
		t.Fatal("waiting screen is blank")
	}
}
