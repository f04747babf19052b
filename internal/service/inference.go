package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/model"
)

// predictFieldName is the multipart field the inference endpoint expects.
const predictFieldName = "file"

// InferenceClient submits one file per call to the external prediction
// endpoint. The endpoint is an opaque service; no retry or backoff here, a
// request runs to completion or failure within the client timeout.
type InferenceClient struct {
	client     *http.Client
	predictURL string
}

func NewInferenceClient(predictURL string, timeout time.Duration) *InferenceClient {
	return &InferenceClient{
		client: &http.Client{
			Timeout: timeout,
		},
		predictURL: predictURL,
	}
}

func (c *InferenceClient) Analyze(ctx context.Context, filename string, file io.Reader) (*model.Verdict, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile(predictFieldName, filename)
	if err != nil {
		return nil, apperrors.InferenceRequest(fmt.Errorf("create form file: %w", err))
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, apperrors.InferenceRequest(fmt.Errorf("read upload: %w", err))
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.InferenceRequest(fmt.Errorf("finalize form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, &body)
	if err != nil {
		return nil, apperrors.InferenceRequest(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("filename", filename).
			Dur("elapsed", elapsed).
			Msg("predict request error")
		return nil, apperrors.InferenceRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("filename", filename).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("predict request failed")
		return nil, apperrors.InferenceRequest(fmt.Errorf("predict endpoint returned %d", resp.StatusCode))
	}

	var verdict model.Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, apperrors.InferenceRequest(fmt.Errorf("decode response: %w", err))
	}

	log.Info().
		Str("filename", filename).
		Str("prediction", verdict.Prediction).
		Float64("confidence", verdict.Confidence).
		Dur("elapsed", elapsed).
		Msg("predict request successful")

	return &verdict, nil
}
