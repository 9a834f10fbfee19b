package calsync

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/tidyhost/tidyhost/pkg/host"
	"github.com/tidyhost/tidyhost/pkg/property"
)

// SyncResultDTO is the shape the mobile clients render after a sync attempt.
type SyncResultDTO struct {
	Success     bool   `json:"success"`
	JobsCreated int    `json:"jobsCreated"`
	JobsUpdated int    `json:"jobsUpdated,omitempty"`
	JobsDeleted int    `json:"jobsDeleted,omitempty"`
	JobsSkipped int    `json:"jobsSkipped,omitempty"`
	Error       string `json:"error,omitempty"`
}

type BulkSyncResultDTO struct {
	Success     bool            `json:"success"`
	JobsCreated int             `json:"jobsCreated"`
	JobsUpdated int             `json:"jobsUpdated"`
	JobsDeleted int             `json:"jobsDeleted"`
	JobsSkipped int             `json:"jobsSkipped"`
	Properties  []SyncResultDTO `json:"properties"`
}

type Handler struct {
	service    *Service
	properties property.Service
}

func NewHandler(service *Service, properties property.Service) *Handler {
	return &Handler{service: service, properties: properties}
}

// SyncProperty triggers an on-demand sync for one property.
func (handler *Handler) SyncProperty(w http.ResponseWriter, r *http.Request) {
	log.Debug("On-demand calendar sync requested")
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}
	// Ownership check goes through the property service.
	if _, err := handler.properties.GetProperty(r.Context(), id); err != nil {
		if errors.Is(err, property.ErrPropertyNotFound) {
			http.Error(w, "property not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	summary, err := handler.service.SyncProperty(r.Context(), id)
	if errors.Is(err, ErrSyncInProgress) {
		w.WriteHeader(http.StatusConflict)
		writeResult(w, summary)
		return
	}
	// Fetch/parse failures still resolve to a summary the UI can show.
	writeResult(w, summary)
}

// SyncAll triggers a sync for every linked property of the current host.
func (handler *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	hostId, err := host.CurrentId(r.Context())
	if err != nil {
		http.Error(w, "host not found", http.StatusForbidden)
		return
	}

	summaries, err := handler.service.SyncAll(r.Context(), hostId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := BulkSyncResultDTO{Success: true}
	for _, s := range summaries {
		dto := toDTO(s)
		result.Properties = append(result.Properties, dto)
		result.JobsCreated += dto.JobsCreated
		result.JobsUpdated += dto.JobsUpdated
		result.JobsDeleted += dto.JobsDeleted
		result.JobsSkipped += dto.JobsSkipped
		if !dto.Success {
			result.Success = false
		}
	}
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeResult(w http.ResponseWriter, summary Summary) {
	if err := json.NewEncoder(w).Encode(toDTO(summary)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toDTO(summary Summary) SyncResultDTO {
	return SyncResultDTO{
		Success:     summary.Success,
		JobsCreated: summary.Created,
		JobsUpdated: summary.Updated,
		JobsDeleted: summary.Deleted,
		JobsSkipped: len(summary.Skipped),
		Error:       summary.ErrorText(),
	}
}
