package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/middleware"
	"github.com/sihmvp/dropout-monitor/internal/response"
	"github.com/sihmvp/dropout-monitor/internal/service"
)

// UploadHandler accepts roster files.
type UploadHandler struct {
	ingestService *service.IngestService
	maxBytes      int64
	log           zerolog.Logger
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(ingestService *service.IngestService, maxBytes int64, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
		maxBytes:      maxBytes,
		log:           log.With().Str("component", "upload_handler").Logger(),
	}
}

// UploadRoster godoc
// POST /api/upload
// Multipart field "file", CSV or XLSX.
func (h *UploadHandler) UploadRoster(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrFileNotSelected)
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), middleware.Actor(c), header.Filename, file)
	if err != nil {
		var rowErr *service.RowError
		switch {
		case errors.Is(err, service.ErrMissingColumns):
			response.Fail(c, http.StatusBadRequest, response.ErrMissingColumns)
		case errors.Is(err, service.ErrUnsupportedFile):
			response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
		case errors.As(err, &rowErr):
			response.FailWithMessage(c, http.StatusBadRequest, response.ErrInvalidFile,
				fmt.Sprintf("Error processing file: %v", rowErr))
		default:
			internalError(c, h.log, err, "Roster upload failed")
		}
		return
	}

	if result.Inserted == 0 {
		response.Message(c, http.StatusOK, "No new student data to upload.")
		return
	}
	response.Message(c, http.StatusOK, fmt.Sprintf("Uploaded %d new student(s).", result.Inserted))
}
