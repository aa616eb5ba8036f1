package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"arena/internal/domain/holding"
	"arena/internal/shared/apperrors"
	"arena/internal/shared/logger"
)

const uploadField = "file"

type Importer interface {
	Import(ctx context.Context, userID string, r io.Reader) (int, error)
}

type PortfolioReader interface {
	Latest(ctx context.Context, userID string) (*holding.Portfolio, error)
}

type HoldingHandler struct {
	importer  Importer
	portfolio PortfolioReader
	maxBytes  int64
}

func NewHoldingHandler(importer Importer, portfolio PortfolioReader, maxBytes int64) *HoldingHandler {
	return &HoldingHandler{importer: importer, portfolio: portfolio, maxBytes: maxBytes}
}

type uploadResponse struct {
	OK       bool `json:"ok"`
	Inserted int  `json:"inserted"`
}

// HandleUpload imports a holdings CSV sent either as the "file" field of a
// multipart form or as the raw request body.
func (h *HoldingHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	data, err := h.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "file too large", Field: uploadField})
			return
		}
		writeError(w, r, err)
		return
	}

	if len(data) > 0 && !isText(data) {
		writeError(w, r, apperrors.Validation(uploadField, "file must be a CSV text file"))
		return
	}

	inserted, err := h.importer.Import(r.Context(), userID, bytes.NewReader(data))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.InfoCtx(r.Context(), "holdings uploaded",
		zap.String("user_id", userID),
		zap.Int("inserted", inserted),
		zap.Int("bytes", len(data)))
	writeJSON(w, http.StatusOK, uploadResponse{OK: true, Inserted: inserted})
}

func (h *HoldingHandler) readUpload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, apperrors.Validation(uploadField, "invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		return nil, apperrors.Validation(uploadField, "missing file")
	}
	defer file.Close()

	return io.ReadAll(file)
}

// isText accepts any payload mimetype resolves to text/plain or a descendant
// of it, which covers text/csv.
func isText(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// HandleLatest returns the newest snapshot of each position with totals.
func (h *HoldingHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	portfolio, err := h.portfolio.Latest(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}
