package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/BerylCAtieno/casevia/internal/exporter"
	"github.com/BerylCAtieno/casevia/internal/services"
	"github.com/BerylCAtieno/casevia/internal/utils"
)

type CaseStudyHandler struct {
	service services.CaseStudyService
	logger  *utils.Logger
}

func NewCaseStudyHandler(service services.CaseStudyService, logger *utils.Logger) *CaseStudyHandler {
	return &CaseStudyHandler{service: service, logger: logger}
}

func (h *CaseStudyHandler) Get(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.GetCaseStudy(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *CaseStudyHandler) GetPublic(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.GetPublicCaseStudy(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *CaseStudyHandler) Publish(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Publish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *CaseStudyHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.Unpublish(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, cs)
}

func (h *CaseStudyHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	format, err := exporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("format must be markdown, html or pdf"))
		return
	}

	out, err := h.service.Export(r.Context(), id, format)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="case-study-%s.%s"`, id, format.Extension()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		h.logger.Error("Failed to write export", "error", err, "id", id)
	}
}
