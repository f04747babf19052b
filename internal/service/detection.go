package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/model"
)

// Analyzer submits a single file for real-vs-deepfake classification.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, file io.Reader) (*model.Verdict, error)
}

// UploadedFile is one file of a submitted batch.
type UploadedFile struct {
	Name string
	Data io.Reader
}

// DetectionService composes the account store, the usage tracker and the
// inference client into the analyze flow. Files are processed one at a time,
// in order; a failure on one file is recorded as an error result and does
// not abort the rest of the batch.
type DetectionService struct {
	accounts *AccountService
	usage    *UsageService
	analyzer Analyzer
}

func NewDetectionService(accounts *AccountService, usage *UsageService, analyzer Analyzer) *DetectionService {
	return &DetectionService{
		accounts: accounts,
		usage:    usage,
		analyzer: analyzer,
	}
}

func (s *DetectionService) AnalyzeBatch(ctx context.Context, files []UploadedFile) (*model.BatchResult, error) {
	if len(files) == 0 {
		return nil, apperrors.Validation("No files to analyze")
	}

	// Lazy month rollover check before the quota gate.
	if err := s.usage.Load(ctx); err != nil {
		return nil, err
	}

	premium := s.accounts.IsPremium()
	if !s.usage.CanDetect(premium) {
		return nil, apperrors.UsageLimitExceeded()
	}

	batch := &model.BatchResult{
		Results: make([]model.DetectionResult, 0, len(files)),
	}

	for _, f := range files {
		verdict, err := s.analyzer.Analyze(ctx, f.Name, f.Data)
		if err != nil {
			log.Error().Err(err).Str("filename", f.Name).Msg("analysis failed")
			batch.Results = append(batch.Results, model.DetectionResult{
				Filename:  f.Name,
				IsReal:    nil,
				Timestamp: time.Now(),
				Error:     true,
			})
			continue
		}

		isReal := verdict.IsReal()
		batch.Results = append(batch.Results, model.DetectionResult{
			Filename:   f.Name,
			IsReal:     &isReal,
			Confidence: verdict.DisplayConfidence(),
			Timestamp:  time.Now(),
		})
	}

	// The counter advances once per batch, free tier only. The batch already
	// ran, so a failed write is logged rather than returned.
	if !premium {
		if err := s.usage.Increment(ctx); err != nil {
			log.Error().Err(err).Msg("failed to persist usage increment")
		}
	}

	batch.Summarize()
	return batch, nil
}
