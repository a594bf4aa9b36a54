package fleet

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Handler serves read-only machine snapshots: /machines lists all, /machines/<id> shows one.
// Snapshots never read the display, so inspecting a machine leaves its state alone.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/machines"), "/")
		snapshots := s.Snapshots(r.Context())

		var body any = snapshots
		if id != "" {
			snapshot, ok := snapshots[id]
			if !ok {
				http.Error(w, "machine not found", http.StatusNotFound)
				return
			}
			body = snapshot
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			s.log.Warn("failed to write machine snapshots", slog.Any("error", err))
		}
	})
}
