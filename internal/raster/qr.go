package raster

import (
	"fmt"
	"image"

	"omrscan/internal/geometry"

	"github.com/skip2/go-qrcode"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"
)

// StampQR prints content as a QR code filling rect of page. rect must lie inside page.
func StampQR(page *gocv.Mat, content string, rect image.Rectangle) error {
	if page.Empty() {
		return geometry.ErrEmptyRaster
	}
	if rect.Empty() || !rect.In(image.Rect(0, 0, page.Cols(), page.Rows())) {
		return fmt.Errorf("%w: qr area %v", geometry.ErrOutOfBoundsCrop, rect)
	}

	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}

	// go-qrcode renders square images; scale it onto the requested area.
	img := code.Image(256)
	rgba := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)

	stamp, err := FromImage(rgba)
	if err != nil {
		return err
	}
	defer stamp.Close()

	target := page.Region(rect)
	defer target.Close()
	stamp.CopyTo(&target)
	return nil
}
