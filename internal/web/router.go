package web

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the session API and the websocket endpoint under /api.
func NewRouter(service *Service) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", service.HealthHandler).Methods("GET")
	api.HandleFunc("/ws", service.WebSocketHandler).Methods("GET")

	api.HandleFunc("/sessions", service.CreateSessionHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}", service.GetSessionHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}", service.DeleteSessionHandler).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/select", service.SelectHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/moves", service.MakeMoveHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/castle", service.CastleHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/navigate", service.NavigateHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/mode", service.ModeHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/flip", service.FlipHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/resign", service.ResignHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/draw", service.ClaimDrawHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/position", service.LoadPositionHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}/position", service.SavePositionHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}/transcript", service.TranscriptHandler).Methods("GET")

	// Preflight requests need a matching route for the middleware to run.
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
