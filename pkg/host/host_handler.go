package host

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type HostDTO struct {
	Uid         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (handler *Handler) CurrentHost(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	h, err := handler.service.GetCurrentHost(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoHost) || errors.Is(err, ErrHostNotFound) {
			http.Error(w, "host not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(toDTO(h)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (handler *Handler) CreateHost(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering new host")
	w.Header().Set("Content-Type", "application/json")

	var dto HostDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreateHost(r.Context(), Host{
		Uid:         dto.Uid,
		DisplayName: dto.DisplayName,
		Email:       dto.Email,
		Phone:       dto.Phone,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func toDTO(h Host) HostDTO {
	return HostDTO{
		Uid:         h.Uid,
		DisplayName: h.DisplayName,
		Email:       h.Email,
		Phone:       h.Phone,
	}
}
