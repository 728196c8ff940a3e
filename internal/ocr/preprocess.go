package ocr

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

const minOCRWidth = 1000

// Preprocess prepares a passport photo for recognition: grayscale, contrast
// boost, light sharpening, and upscaling when the image is too small for the
// MRZ glyphs to resolve.
func Preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 1.0)
	if out.Bounds().Dx() < minOCRWidth {
		out = imaging.Resize(out, minOCRWidth, 0, imaging.Lanczos)
	}
	return out
}

// DecodeImage decodes raw upload bytes into an image.
func DecodeImage(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}

// EncodePNG renders an image back to PNG bytes for the OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
