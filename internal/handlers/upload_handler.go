package handlers

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/team-diagnostic/internal/apperrors"
	"alfredoptarigan/team-diagnostic/internal/models"
	"alfredoptarigan/team-diagnostic/internal/services"
)

// MaxFilesPerUpload bounds one multipart batch.
const MaxFilesPerUpload = 10

type UploadHandler struct {
	transcripts services.TranscriptService
	maxFileSize int64
}

func NewUploadHandler(transcripts services.TranscriptService, maxFileSize int64) *UploadHandler {
	return &UploadHandler{
		transcripts: transcripts,
		maxFileSize: maxFileSize,
	}
}

// HandleUpload handles POST /founders/:id/transcripts. Files are processed in the
// order they appear in the form; each gets its own result.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.Validation("failed to parse multipart form", nil)
	}

	headers := form.File["files"]
	if len(headers) > MaxFilesPerUpload {
		return apperrors.Validation(
			fmt.Sprintf("at most %d files can be uploaded at once", MaxFilesPerUpload),
			map[string]string{"files": "too many files"},
		)
	}

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, h.readFile(fh))
	}

	resp, err := h.transcripts.UploadBatch(c.UserContext(), founderID, files, adminEmail(c))
	if err != nil {
		return err
	}

	status := fiber.StatusCreated
	if resp.Outcome == models.OutcomeFailed {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(resp)
}

// readFile reads at most one byte past the size limit so oversized files are
// reported by the batch instead of being buffered whole.
func (h *UploadHandler) readFile(fh *multipart.FileHeader) services.UploadFile {
	out := services.UploadFile{FileName: fh.Filename}

	if fh.Size > h.maxFileSize {
		out.ReadErr = apperrors.Newf(apperrors.KindValidation, "file exceeds the %d byte limit", h.maxFileSize)
		return out
	}

	f, err := fh.Open()
	if err != nil {
		out.ReadErr = fmt.Errorf("failed to open uploaded file: %w", err)
		return out
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		out.ReadErr = fmt.Errorf("failed to read uploaded file: %w", err)
		return out
	}
	out.Data = data
	return out
}

// HandleList handles GET /founders/:id/transcripts
func (h *UploadHandler) HandleList(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	transcripts, err := h.transcripts.List(c.UserContext(), founderID)
	if err != nil {
		return err
	}
	return c.JSON(transcripts)
}

// HandleDelete handles DELETE /founders/:id/transcripts/:transcript_id
func (h *UploadHandler) HandleDelete(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	transcriptID, err := uuidParam(c, "transcript_id")
	if err != nil {
		return err
	}

	if err := h.transcripts.Delete(c.UserContext(), founderID, transcriptID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSearch handles GET /founders/:id/transcripts/search?q=&limit=
func (h *UploadHandler) HandleSearch(c *fiber.Ctx) error {
	founderID, err := uuidParam(c, "id")
	if err != nil {
		return err
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		return err
	}

	hits, err := h.transcripts.Search(c.UserContext(), founderID, c.Query("q"), limit)
	if err != nil {
		return err
	}
	return c.JSON(hits)
}
