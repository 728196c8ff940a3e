package ocr

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Document validity derived from the resolved expiry date.
const (
	ValidityValid   = "valid"
	ValidityExpired = "expired"
	ValidityUnknown = "unknown"
)

// Recognition is the outcome of running the strategy pipeline over one image.
type Recognition struct {
	Strategy   string
	RawText    string
	MRZ        *MRZData
	BirthDate  string
	ExpiryDate string
	Validity   string
	Confidence float64
}

// Strategy is one attempt at extracting passport data from image bytes.
type Strategy interface {
	Name() string
	Recognize(imageBytes []byte) (*Recognition, error)
}

// Recognizer runs an ordered list of strategies and returns the first result
// whose confidence clears the threshold, falling back to the best result seen
// when none does.
type Recognizer struct {
	strategies []Strategy
	threshold  float64
	now        func() time.Time
}

// DefaultConfidenceThreshold is the check-digit pass fraction below which a
// result is flagged for manual review.
const DefaultConfidenceThreshold = 0.75

func NewRecognizer(engine Engine, threshold float64) *Recognizer {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Recognizer{
		strategies: []Strategy{
			&mrzDirectStrategy{engine: engine},
			&mrzPreprocessedStrategy{engine: engine},
		},
		threshold: threshold,
		now:       time.Now,
	}
}

// Threshold reports the confidence threshold the pipeline applies.
func (r *Recognizer) Threshold() float64 { return r.threshold }

// Recognize runs each strategy in order. Returns the recognition and whether
// manual review is required. An error means no strategy produced any parse.
func (r *Recognizer) Recognize(imageBytes []byte) (*Recognition, bool, error) {
	var best *Recognition
	var lastErr error

	for _, s := range r.strategies {
		rec, err := s.Recognize(imageBytes)
		if err != nil {
			log.Printf("ocr strategy %s failed: %v", s.Name(), err)
			lastErr = err
			continue
		}
		rec.Strategy = s.Name()
		if err := r.resolveDates(rec); err != nil {
			lastErr = err
			continue
		}
		if rec.Confidence >= r.threshold {
			return rec, rec.Confidence < 1.0, nil
		}
		if best == nil || rec.Confidence > best.Confidence {
			best = rec
		}
	}

	if best != nil {
		return best, true, nil
	}
	if lastErr != nil {
		return nil, false, lastErr
	}
	return nil, false, fmt.Errorf("no recognition strategies configured")
}

func (r *Recognizer) resolveDates(rec *Recognition) error {
	now := r.now()
	if strings.Trim(rec.MRZ.BirthDate, "<") != "" {
		birth, err := ResolveBirthDate(rec.MRZ.BirthDate, now)
		if err != nil {
			return err
		}
		rec.BirthDate = birth
	}
	rec.Validity = ValidityUnknown
	if strings.Trim(rec.MRZ.ExpiryDate, "<") != "" {
		expiry, err := ResolveExpiryDate(rec.MRZ.ExpiryDate, now)
		if err != nil {
			return err
		}
		rec.ExpiryDate = expiry
		rec.Validity = documentValidity(expiry, now)
	}
	return nil
}

// documentValidity compares a resolved expiry date against the current day.
// An expiry on today's date still counts as valid.
func documentValidity(expiry string, now time.Time) string {
	t, err := ParseDate(expiry)
	if err != nil {
		return ValidityUnknown
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if t.Before(today) {
		return ValidityExpired
	}
	return ValidityValid
}

// mrzDirectStrategy feeds the upload bytes straight to the OCR engine.
type mrzDirectStrategy struct {
	engine Engine
}

func (s *mrzDirectStrategy) Name() string { return "mrz-direct" }

func (s *mrzDirectStrategy) Recognize(imageBytes []byte) (*Recognition, error) {
	return recognizeMRZ(s.engine, imageBytes)
}

// mrzPreprocessedStrategy cleans the image up before recognition. Slower,
// but recovers low-contrast and small scans the direct pass misses.
type mrzPreprocessedStrategy struct {
	engine Engine
}

func (s *mrzPreprocessedStrategy) Name() string { return "mrz-preprocessed" }

func (s *mrzPreprocessedStrategy) Recognize(imageBytes []byte) (*Recognition, error) {
	img, err := DecodeImage(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	processed, err := EncodePNG(Preprocess(img))
	if err != nil {
		return nil, fmt.Errorf("encode preprocessed image: %w", err)
	}
	return recognizeMRZ(s.engine, processed)
}

func recognizeMRZ(engine Engine, imageBytes []byte) (*Recognition, error) {
	text, err := engine.RecognizeText(imageBytes)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}
	line1, line2, err := ExtractMRZ(text)
	if err != nil {
		return nil, err
	}
	mrz, err := ParseTD3(line1, line2)
	if err != nil {
		return nil, err
	}
	return &Recognition{
		RawText:    text,
		MRZ:        mrz,
		Confidence: mrz.Confidence,
	}, nil
}
