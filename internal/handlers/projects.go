package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/casevia/internal/models"
	"github.com/BerylCAtieno/casevia/internal/services"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

// OrganizationHeader selects the organization a request acts for.
const OrganizationHeader = "X-Organization-ID"

// multipartOverhead leaves room for form fields around the file part.
const multipartOverhead = 1 << 20

type ProjectHandler struct {
	service      services.ProjectService
	logger       *utils.Logger
	maxFileSize  int64
	defaultOrgID string
}

func NewProjectHandler(service services.ProjectService, maxFileSize int64, defaultOrgID string, logger *utils.Logger) *ProjectHandler {
	return &ProjectHandler{
		service:      service,
		logger:       logger,
		maxFileSize:  maxFileSize,
		defaultOrgID: defaultOrgID,
	}
}

func (h *ProjectHandler) organizationID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(OrganizationHeader)); id != "" {
		return id
	}
	return h.defaultOrgID
}

func (h *ProjectHandler) sizeLimitMessage() string {
	return fmt.Sprintf("File size exceeds %dMB limit", h.maxFileSize>>20)
}

func (h *ProjectHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.maxFileSize + multipartOverhead
	if r.ContentLength > limit {
		respondError(w, h.logger, utils.NewBadRequestError(h.sizeLimitMessage()))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, h.logger, utils.NewBadRequestError(h.sizeLimitMessage()))
			return
		}
		respondError(w, h.logger, utils.NewBadRequestError("Invalid form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("No file provided"))
		return
	}
	defer file.Close()

	var duration float64
	if v := strings.TrimSpace(r.FormValue("duration")); v != "" {
		duration, err = strconv.ParseFloat(v, 64)
		if err != nil || duration < 0 {
			respondError(w, h.logger, utils.NewBadRequestError("duration must be a non-negative number of seconds"))
			return
		}
	}

	contentType := models.DetermineContentType(header.Filename, header.Header.Get("Content-Type"))

	h.logger.Info("File upload attempt",
		"filename", header.Filename,
		"reported_content_type", header.Header.Get("Content-Type"),
		"determined_content_type", contentType,
		"duration", duration)

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		respondError(w, h.logger, utils.WrapInternal("Failed to read file", err))
		return
	}
	if int64(len(data)) > h.maxFileSize {
		respondError(w, h.logger, utils.NewBadRequestError(h.sizeLimitMessage()))
		return
	}
	if len(data) == 0 {
		respondError(w, h.logger, utils.NewBadRequestError("Uploaded file is empty"))
		return
	}

	resp, err := h.service.Upload(r.Context(), &models.UploadRequest{
		OrganizationID:  h.organizationID(r),
		File:            data,
		FileName:        header.Filename,
		ContentType:     contentType,
		DurationSeconds: duration,
		NotifyEmail:     r.FormValue("email"),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, resp)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, p)
}

func (h *ProjectHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.GetStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, status)
}

func (h *ProjectHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.StartTranscription(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusAccepted, p)
}

func (h *ProjectHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Analyze(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *ProjectHandler) Retry(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Retry(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusAccepted, p)
}

func (h *ProjectHandler) GetCaseStudy(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.GetProjectCaseStudy(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *ProjectHandler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.service.Usage(r.Context(), h.organizationID(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, usage)
}
