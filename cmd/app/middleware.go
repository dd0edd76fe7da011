package main

import (
	"net/http"
)

// UploadLimitMiddleware caps the request body at the configured upload size.
func (app *application) UploadLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limit := app.config.optimizer.maxUploadBytes; limit > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		next.ServeHTTP(w, r)
	})
}
