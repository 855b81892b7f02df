package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	jobapp "github.com/jobboard-api/internal/application/job"
	"github.com/jobboard-api/internal/domain"
	"github.com/jobboard-api/internal/pkg/validate"
	"github.com/jobboard-api/internal/transport/http/middleware"
)

// JobHandler handles company, job posting, and application endpoints.
type JobHandler struct {
	svc jobapp.Service
}

func NewJobHandler(svc jobapp.Service) *JobHandler { return &JobHandler{svc: svc} }

func requester(w http.ResponseWriter, r *http.Request) (userID string, isAdmin bool, ok bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false, false
	}
	return claims.UserID, claims.Role == domain.RoleAdmin, true
}

// --- companies ---

func (h *JobHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c, err := h.svc.CreateCompany(r.Context(), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *JobHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCompany(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *JobHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)
	companies, next, err := h.svc.ListCompanies(r.Context(), limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: companies, NextCursor: next})
}

func (h *JobHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	c, err := h.svc.UpdateCompany(r.Context(), chi.URLParam(r, "id"), userID, isAdmin, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// --- jobs ---

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	j, err := h.svc.CreateJob(r.Context(), userID, isAdmin, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit, cursor := parsePage(r)
	q := r.URL.Query()
	filter := domain.JobFilter{
		Query:           q.Get("q"),
		Location:        q.Get("location"),
		EmploymentType:  q.Get("employment_type"),
		ExperienceLevel: q.Get("experience_level"),
		RemoteOnly:      q.Get("remote") == "true",
		CompanyID:       q.Get("company_id"),
	}
	jobs, next, err := h.svc.ListJobs(r.Context(), filter, limit, cursor)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: jobs, NextCursor: next})
}

func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	j, err := h.svc.UpdateJob(r.Context(), chi.URLParam(r, "id"), userID, isAdmin, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteJob(r.Context(), chi.URLParam(r, "id"), userID, isAdmin); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "job deleted"})
}

// --- applications ---

func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := h.svc.Apply(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *JobHandler) ListJobApplications(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	apps, err := h.svc.ListJobApplications(r.Context(), chi.URLParam(r, "id"), userID, isAdmin)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: apps})
}

func (h *JobHandler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requester(w, r)
	if !ok {
		return
	}
	apps, err := h.svc.ListMyApplications(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageEnvelope{Data: apps})
}

func (h *JobHandler) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, ok := requester(w, r)
	if !ok {
		return
	}
	var req domain.UpdateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	a, err := h.svc.UpdateApplication(r.Context(), chi.URLParam(r, "id"), userID, isAdmin, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
