package app

import (
	"github.com/gorilla/mux"
	"github.com/tidyhost/tidyhost/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Host account
	r.HandleFunc("/api/host", deps.HostHandler.CreateHost).Methods("POST")
	r.HandleFunc("/api/host/current", deps.HostHandler.CurrentHost).Methods("GET")

	// Properties
	r.HandleFunc("/api/property", deps.PropertyHandler.CreateProperty).Methods("POST")
	r.HandleFunc("/api/property", deps.PropertyHandler.ListProperties).Methods("GET")
	r.HandleFunc("/api/property/{propertyId}", deps.PropertyHandler.GetProperty).Methods("GET")
	r.HandleFunc("/api/property/{propertyId}", deps.PropertyHandler.UpdateProperty).Methods("PUT")
	r.HandleFunc("/api/property/{propertyId}", deps.PropertyHandler.DeleteProperty).Methods("DELETE")

	// Calendar feed link
	r.HandleFunc("/api/property/{propertyId}/calendar", deps.PropertyHandler.SetCalendar).Methods("PUT")
	r.HandleFunc("/api/property/{propertyId}/calendar", deps.PropertyHandler.ClearCalendar).Methods("DELETE")
	r.HandleFunc("/api/property/{propertyId}/sync", deps.SyncHandler.SyncProperty).Methods("POST")
	r.HandleFunc("/api/sync", deps.SyncHandler.SyncAll).Methods("POST")

	// Cleaning jobs
	r.HandleFunc("/api/job", deps.JobHandler.CreateJob).Methods("POST")
	r.HandleFunc("/api/job", deps.JobHandler.ListJobs).Queries("address", "{address}").Methods("GET")
	r.HandleFunc("/api/job/{jobId}/assign", deps.JobHandler.AssignCleaner).Methods("PUT")
	r.HandleFunc("/api/job/{jobId}/status", deps.JobHandler.UpdateStatus).Methods("PUT")
}
