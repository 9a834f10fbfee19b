package property

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type PropertyDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	CalendarURL string     `json:"calendarUrl,omitempty"`
	LastSyncAt  *time.Time `json:"lastSyncAt,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new property")
	w.Header().Set("Content-Type", "application/json")

	var dto PropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if dto.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreateProperty(r.Context(), Property{
		Name:        dto.Name,
		Address:     dto.Address,
		CalendarURL: dto.CalendarURL,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(PropertyToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	properties, err := handler.service.ListProperties(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]PropertyDTO, 0, len(properties))
	for _, p := range properties {
		dtos = append(dtos, PropertyToDTO(p))
	}
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	p, err := handler.service.GetProperty(r.Context(), id)
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(PropertyToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}
	var dto PropertyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.service.UpdateProperty(r.Context(), Property{
		ID:      id,
		Name:    dto.Name,
		Address: dto.Address,
	})
	if err != nil {
		handler.writeServiceError(w, err)
		return
	}
	if err := json.NewEncoder(w).Encode(PropertyToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	if err := handler.service.DeleteProperty(r.Context(), id); err != nil {
		handler.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCalendar links or replaces the property's calendar feed URL.
func (handler *Handler) SetCalendar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.URL == "" {
		http.Error(w, "url is required, use DELETE to unlink", http.StatusBadRequest)
		return
	}

	if err := handler.service.SetCalendarURL(r.Context(), id, body.URL); err != nil {
		handler.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ClearCalendar unlinks the property's calendar feed.
func (handler *Handler) ClearCalendar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["propertyId"])
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	if err := handler.service.SetCalendarURL(r.Context(), id, ""); err != nil {
		handler.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPropertyNotFound) {
		http.Error(w, "property not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func PropertyToDTO(p Property) PropertyDTO {
	return PropertyDTO{
		ID:          p.ID.String(),
		Name:        p.Name,
		Address:     p.Address,
		CalendarURL: p.CalendarURL,
		LastSyncAt:  p.LastSyncAt,
	}
}
