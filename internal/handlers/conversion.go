package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/models"
	"github.com/formaflow/converter_api/internal/registry"
	"github.com/formaflow/converter_api/internal/services"
)

// ConversionHandler exposes the conversion workflow over HTTP: upload,
// start, poll, download.
type ConversionHandler struct {
	service  *services.ConversionService
	jobs     *services.JobManager
	uploads  *services.UploadStore
	packager *services.Packager
	log      zerolog.Logger
}

func NewConversionHandler(
	service *services.ConversionService,
	jobs *services.JobManager,
	uploads *services.UploadStore,
	packager *services.Packager,
	log zerolog.Logger,
) *ConversionHandler {
	return &ConversionHandler{
		service:  service,
		jobs:     jobs,
		uploads:  uploads,
		packager: packager,
		log:      log,
	}
}

// UploadFiles accepts one or more files in a multipart form and returns an
// ephemeral FileInfo for each. No job exists yet; conversion starts with a
// separate request.
func (h *ConversionHandler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse multipart form"})
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	infos := make([]models.FileInfo, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read uploaded file %q", fh.Filename)})
			return
		}
		info, err := h.uploads.Save(fh.Filename, fh.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			h.log.Error().Err(err).Msg("upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded file"})
			return
		}
		infos = append(infos, info)
	}
	c.JSON(http.StatusOK, models.UploadResponse{Files: infos})
}

// ListPresets feeds the selection UI: all presets, or just the ones
// accepting ?ext=.
func (h *ConversionHandler) ListPresets(c *gin.Context) {
	if ext := c.Query("ext"); ext != "" {
		c.JSON(http.StatusOK, gin.H{"presets": registry.PresetsForExtension(ext)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"presets": registry.All()})
}

// StartConversion validates the request and returns a jobId to poll.
func (h *ConversionHandler) StartConversion(c *gin.Context) {
	var req models.ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	jobID, err := h.service.StartConversion(req.FileID, req.ConversionType, req.Options)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ConvertResponse{JobID: jobID})
}

// GetJobStatus is the polling endpoint.
func (h *ConversionHandler) GetJobStatus(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("jobId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DownloadResult streams a single artifact of a completed job. ?file=
// selects an index; the default is the first artifact.
func (h *ConversionHandler) DownloadResult(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("jobId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	index := 0
	if raw := c.Query("file"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a non-negative index"})
			return
		}
		index = parsed
	}

	data, name, contentType, err := h.packager.File(job, index)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}

// DownloadZip bundles every artifact of a completed job into one archive.
func (h *ConversionHandler) DownloadZip(c *gin.Context) {
	job, err := h.jobs.Get(c.Param("jobId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	archive, err := h.packager.Zip(job)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ID+".zip"))
	c.Data(http.StatusOK, "application/zip", archive)
}

// writeError maps the error taxonomy onto HTTP status codes. Validation
// messages surface verbatim; anything unclassified stays generic.
func (h *ConversionHandler) writeError(c *gin.Context, err error) {
	var vErr *convert.ValidationError
	var uErr *convert.UnsupportedConversionError
	var nErr *convert.NotFoundError
	var tErr *convert.TimeoutError
	var cErr *convert.ConversionError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &uErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": uErr.Error()})
	case errors.As(err, &nErr):
		c.JSON(http.StatusNotFound, gin.H{"error": nErr.Error()})
	case errors.As(err, &tErr):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": tErr.Error()})
	case errors.As(err, &cErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": cErr.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
