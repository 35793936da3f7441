package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"convostore/pkg/logger"
	"convostore/pkg/store"
	"convostore/pkg/utils"
)

// RegisterMeta registers the root info endpoint and the health check.
func RegisterMeta(r *mux.Router, version string) {
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		rootInfo(w, req, version)
	}).Methods(http.MethodGet)
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)
}

func rootInfo(w http.ResponseWriter, r *http.Request, version string) {
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Message   string `json:"message"`
		Status    string `json:"status"`
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
	}{
		Message:   "convostore",
		Status:    "running",
		Version:   version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// healthCheck never fails: backend trouble degrades the payload instead of
// raising, so deployment probes always get a 200 with the truth in the body.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	ts := time.Now().UTC().Format(time.RFC3339)
	n, err := store.Collections(r.Context())
	if err != nil {
		logger.Warn("health_backend_unreachable", "error", err)
		_ = utils.JSONWrite(w, http.StatusOK, struct {
			Status          string `json:"status"`
			QdrantConnected bool   `json:"qdrant_connected"`
			Error           string `json:"error"`
			Timestamp       string `json:"timestamp"`
		}{
			Status:          "unhealthy",
			QdrantConnected: false,
			Error:           err.Error(),
			Timestamp:       ts,
		})
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Status          string `json:"status"`
		QdrantConnected bool   `json:"qdrant_connected"`
		Collections     int    `json:"collections"`
		Timestamp       string `json:"timestamp"`
	}{
		Status:          "healthy",
		QdrantConnected: true,
		Collections:     n,
		Timestamp:       ts,
	})
}
