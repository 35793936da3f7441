// Package api assembles the HTTP surface of the gateway.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"convostore/pkg/api/handlers"
)

// Router returns the gateway's route table. Middleware (CORS, rate limiting,
// metrics) is layered on by the caller.
func Router(version string) http.Handler {
	r := mux.NewRouter()
	handlers.RegisterMeta(r, version)
	handlers.RegisterConversations(r)
	return r
}
