package v1

import (
	"net/http"
	"sync/atomic"
)

// ReadyzHandler returns 200 when server is ready, 503 otherwise.
//
// The ready flag is set by the app runtime once the HTTP listener and the
// job workers are up and a catalog has been installed in the detector.
func ReadyzHandler(ready *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Not Ready"))
		}
	}
}
