package graphics

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// FrameImage converts a frame of 0xRRGGBB pixels into an RGBA image
func FrameImage(frameBuffer []uint32) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
	if err := fillImage(img, frameBuffer); err != nil {
		return nil, err
	}
	return img, nil
}

// fillImage writes frameBuffer into an image of the native screen size
func fillImage(img *image.RGBA, frameBuffer []uint32) error {
	if len(frameBuffer) != ScreenWidth*ScreenHeight {
		return fmt.Errorf("frame has %d pixels, want %d", len(frameBuffer), ScreenWidth*ScreenHeight)
	}
	for y := 0; y < ScreenHeight; y++ {
		for x := 0; x < ScreenWidth; x++ {
			pixel := frameBuffer[y*ScreenWidth+x]
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(pixel >> 16),
				G: uint8(pixel >> 8),
				B: uint8(pixel),
				A: 0xFF,
			})
		}
	}
	return nil
}

// WriteBMP encodes a frame as a BMP image
func WriteBMP(w io.Writer, frameBuffer []uint32) error {
	img, err := FrameImage(frameBuffer)
	if err != nil {
		return err
	}
	return bmp.Encode(w, img)
}

// SaveBMP writes a frame to a BMP file at path
func SaveBMP(path string, frameBuffer []uint32) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}

	if err := WriteBMP(file, frameBuffer); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
