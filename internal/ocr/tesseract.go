package ocr

import (
	"github.com/otiai10/gosseract/v2"
)

// Engine runs text recognition over image bytes.
type Engine interface {
	RecognizeText(imageBytes []byte) (string, error)
}

type tesseractEngine struct {
	languages []string
}

// NewTesseractEngine returns an Engine backed by a local Tesseract install.
// A fresh client is created per call since gosseract clients are not safe
// for concurrent use.
func NewTesseractEngine(languages ...string) Engine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &tesseractEngine{languages: languages}
}

func (e *tesseractEngine) RecognizeText(imageBytes []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", err
	}
	// MRZ lines are uppercase letters, digits and fillers only.
	if err := client.SetWhitelist("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(imageBytes); err != nil {
		return "", err
	}
	return client.Text()
}
