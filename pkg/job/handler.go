package job

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type JobDTO struct {
	ID                 string `json:"id"`
	PropertyAddress    string `json:"propertyAddress"`
	ScheduledDate      string `json:"scheduledDate"`
	Status             string `json:"status"`
	Provenance         string `json:"provenance"`
	ReservationUID     string `json:"reservationUid,omitempty"`
	GuestName          string `json:"guestName,omitempty"`
	GuestPhoneLastFour string `json:"guestPhoneLastFour,omitempty"`
	ReservationURL     string `json:"reservationUrl,omitempty"`
	CleanerID          string `json:"cleanerId,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating manual cleaning job")
	w.Header().Set("Content-Type", "application/json")

	var dto JobDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scheduled, err := time.Parse("2006-01-02", dto.ScheduledDate)
	if err != nil {
		http.Error(w, "invalid scheduledDate, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreateManualJob(r.Context(), Job{
		PropertyAddress: dto.PropertyAddress,
		ScheduledDate:   scheduled,
		GuestName:       dto.GuestName,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(JobToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	address := r.URL.Query().Get("address")
	if address == "" {
		http.Error(w, "address query parameter is required", http.StatusBadRequest)
		return
	}

	var jobs []Job
	var err error
	if status := r.URL.Query().Get("status"); status != "" {
		jobs, err = handler.service.ListByAddressAndStatus(r.Context(), address, Status(status))
	} else {
		jobs, err = handler.service.ListByAddress(r.Context(), address)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]JobDTO, 0, len(jobs))
	for _, j := range jobs {
		dtos = append(dtos, JobToDTO(j))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) AssignCleaner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["jobId"])
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var body struct {
		CleanerID string `json:"cleanerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.service.AssignCleaner(r.Context(), id, body.CleanerID)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(JobToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["jobId"])
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.service.TransitionStatus(r.Context(), id, Status(body.Status))
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(JobToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrJobNotFound):
		http.Error(w, "job not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrJobNotOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func JobToDTO(j Job) JobDTO {
	return JobDTO{
		ID:                 j.ID.String(),
		PropertyAddress:    j.PropertyAddress,
		ScheduledDate:      j.ScheduledDate.Format("2006-01-02"),
		Status:             string(j.Status),
		Provenance:         string(j.Provenance),
		ReservationUID:     j.ReservationUID,
		GuestName:          j.GuestName,
		GuestPhoneLastFour: j.GuestPhoneLastFour,
		ReservationURL:     j.ReservationURL,
		CleanerID:          j.CleanerID,
	}
}
