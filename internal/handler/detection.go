package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deefind/detector-server-go/internal/audit"
	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/httputil"
	"github.com/deefind/detector-server-go/internal/service"
)

// uploadFieldName is the multipart field clients submit files under. One or
// more parts may share the field.
const uploadFieldName = "file"

const multipartMemoryLimit = 32 << 20 // 32MB before spilling to disk

type DetectionHandler struct {
	detections *service.DetectionService
}

func NewDetectionHandler(detections *service.DetectionService) *DetectionHandler {
	return &DetectionHandler{detections: detections}
}

func (h *DetectionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Analyze)

	return r
}

// POST /v1/detections
func (h *DetectionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		httputil.WriteError(w, apperrors.Validation("Invalid multipart request"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadFieldName]
	if len(headers) == 0 {
		httputil.WriteError(w, apperrors.Validation("No files to analyze"))
		return
	}

	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			// An unreadable part becomes a per-file error result downstream
			// instead of failing the whole batch.
			files = append(files, service.UploadedFile{Name: fh.Filename, Data: errReader{err}})
			continue
		}
		defer f.Close()
		files = append(files, service.UploadedFile{Name: fh.Filename, Data: f})
	}

	result, err := h.detections.AnalyzeBatch(r.Context(), files)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeUsageLimitExceeded {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventQuotaExhausted})
		}
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type: audit.EventDetectionBatch,
		Details: map[string]interface{}{
			"files":        result.FilesAnalyzed,
			"deepfakeRate": result.DeepfakeRate,
		},
	})

	writeJSON(w, http.StatusOK, result)
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

var _ io.Reader = errReader{}
