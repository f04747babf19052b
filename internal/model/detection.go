package model

import (
	"math"
	"time"
)

// PredictionReal is the verdict string the inference endpoint returns for
// authentic media. Any other value is treated as a deepfake.
const PredictionReal = "Real"

// Verdict is the raw response body of the inference endpoint. Confidence is
// the model's confidence in Prediction, in [0,1].
type Verdict struct {
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

func (v *Verdict) IsReal() bool {
	return v.Prediction == PredictionReal
}

// DisplayConfidence expresses the raw confidence as percent confidence in
// the displayed label. A fake verdict inverts the real-probability, so the
// bar always reads "how sure are we of the label shown".
func (v *Verdict) DisplayConfidence() int {
	realPercent := v.Confidence * 100
	if v.IsReal() {
		return int(math.Round(realPercent))
	}
	return int(math.Round(100 - realPercent))
}

// DetectionResult is the per-file outcome of a batch. IsReal is nil when the
// inference call failed; Error marks that file as undetermined without
// failing the rest of the batch.
type DetectionResult struct {
	Filename   string    `json:"filename"`
	IsReal     *bool     `json:"isReal"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Error      bool      `json:"error,omitempty"`
}

// BatchResult carries per-file results plus the summary stats the results
// panel shows.
type BatchResult struct {
	Results       []DetectionResult `json:"results"`
	FilesAnalyzed int               `json:"filesAnalyzed"`
	DeepfakeRate  int               `json:"deepfakeRate"`
}

// Summarize recomputes FilesAnalyzed and DeepfakeRate from Results.
// Undetermined results count toward the deepfake rate, matching the display
// logic this mirrors.
func (b *BatchResult) Summarize() {
	b.FilesAnalyzed = len(b.Results)
	if b.FilesAnalyzed == 0 {
		b.DeepfakeRate = 0
		return
	}
	fakes := 0
	for _, r := range b.Results {
		if r.IsReal == nil || !*r.IsReal {
			fakes++
		}
	}
	b.DeepfakeRate = int(math.Round(float64(fakes) / float64(b.FilesAnalyzed) * 100))
}
