package entity

import "time"

// FaceMetrics are the landmark summaries for exactly one detected face.
type FaceMetrics struct {
	Symmetry          float64 `json:"symmetry"`
	AspectRatio       float64 `json:"aspect_ratio"`
	JawlineAngleProxy float64 `json:"jawline_proxy"`
}

// FaceScanResult is immutable once created.
type FaceScanResult struct {
	ID                        string    `json:"id"`
	Rating                    float64   `json:"rating"`
	Strengths                 []string  `json:"strengths"`
	Weaknesses                []string  `json:"weaknesses"`
	CapturedAt                time.Time `json:"captured_at"`
	ProcessingDurationSeconds float64   `json:"processing_duration_seconds"`
}
