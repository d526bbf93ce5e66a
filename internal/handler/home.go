package handler

import "net/http"

// HandleHome identifies the service on the root path.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "birthday-bot", "status": "ok"})
}
