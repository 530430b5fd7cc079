package handler

import "net/http"

// HealthCheck reports service liveness.
func (h *Repo) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
