package ocr

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine returns canned text per call, in order.
type stubEngine struct {
	outputs []string
	errs    []error
	calls   int
}

func (s *stubEngine) RecognizeText(imageBytes []byte) (string, error) {
	i := s.calls
	s.calls++
	if i >= len(s.outputs) {
		i = len(s.outputs) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.outputs[i], err
}

func specimenText() string {
	return "PASSPORT\n" + specimenLine1 + "\n" + specimenLine2 + "\n"
}

func testImageBytes(t *testing.T) []byte {
	t.Helper()
	data, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 40, 20)))
	require.NoError(t, err)
	return data
}

func TestRecognizeDirectStrategyWins(t *testing.T) {
	engine := &stubEngine{outputs: []string{specimenText()}}
	r := NewRecognizer(engine, 0.75)

	rec, review, err := r.Recognize(testImageBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "mrz-direct", rec.Strategy)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.False(t, review)
	assert.Equal(t, "L898902C3", rec.MRZ.DocumentNumber)
	assert.Equal(t, "1974-08-12", rec.BirthDate)
	assert.Equal(t, "2012-04-15", rec.ExpiryDate)
	assert.Equal(t, ValidityExpired, rec.Validity)
	assert.Equal(t, 1, engine.calls)
}

func TestDocumentValidity(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	assert.Equal(t, ValidityValid, documentValidity("2030-01-01", now))
	assert.Equal(t, ValidityValid, documentValidity("2026-08-31", now))
	assert.Equal(t, ValidityExpired, documentValidity("2026-08-30", now))
	assert.Equal(t, ValidityUnknown, documentValidity("", now))
	assert.Equal(t, ValidityUnknown, documentValidity("never", now))
}

func TestRecognizeFallsBackToPreprocessed(t *testing.T) {
	engine := &stubEngine{outputs: []string{"ILLEGIBLE SCAN", specimenText()}}
	r := NewRecognizer(engine, 0.75)

	rec, review, err := r.Recognize(testImageBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "mrz-preprocessed", rec.Strategy)
	assert.False(t, review)
	assert.Equal(t, 2, engine.calls)
}

func TestRecognizeLowConfidenceFlagsReview(t *testing.T) {
	// Only the composite check digit fails: 4 of 5 checks pass.
	corrupted := "PASSPORT\n" + specimenLine1 + "\n" + specimenLine2[:43] + "1\n"
	engine := &stubEngine{outputs: []string{corrupted}}
	r := NewRecognizer(engine, 0.75)

	rec, review, err := r.Recognize(testImageBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "mrz-direct", rec.Strategy)
	assert.InDelta(t, 0.8, rec.Confidence, 0.001)
	assert.True(t, review)
}

func TestRecognizeBelowThresholdReturnsBestWithReview(t *testing.T) {
	// Corrupting the birth check digit also breaks the composite: 3 of 5.
	badBirth := specimenLine2[:19] + "3" + specimenLine2[20:]
	text := "PASSPORT\n" + specimenLine1 + "\n" + badBirth + "\n"
	engine := &stubEngine{outputs: []string{text}}
	r := NewRecognizer(engine, 0.75)

	rec, review, err := r.Recognize(testImageBytes(t))
	require.NoError(t, err)
	assert.True(t, review)
	assert.Less(t, rec.Confidence, 0.75)
}

func TestRecognizeNoMRZAnywhere(t *testing.T) {
	engine := &stubEngine{outputs: []string{"HOTEL RECEIPT"}}
	r := NewRecognizer(engine, 0.75)

	_, _, err := r.Recognize(testImageBytes(t))
	assert.Error(t, err)
	assert.Equal(t, 2, engine.calls)
}

func TestRecognizeEngineError(t *testing.T) {
	engine := &stubEngine{
		outputs: []string{"", ""},
		errs:    []error{errors.New("tesseract not installed"), errors.New("tesseract not installed")},
	}
	r := NewRecognizer(engine, 0.75)

	_, _, err := r.Recognize(testImageBytes(t))
	assert.Error(t, err)
}
