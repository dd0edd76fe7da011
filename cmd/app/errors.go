package main

import (
	"errors"
	"net/http"

	"github.com/xbanchon/image-optimizer/internal/processor"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) requestTooLargeResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("request too large", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusRequestEntityTooLarge, "the uploaded file is too large")
}

// processingError answers a failed optimization request. The user gets the
// readable message, the log gets the diagnostic detail.
func (app *application) processingError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		decodeErr   *processor.DecodeError
		encodingErr *processor.EncodingError
		noTargetErr *processor.NoTargetAvailableError
		status      int
	)

	switch {
	case errors.As(err, &decodeErr):
		status = http.StatusBadRequest
	case errors.As(err, &noTargetErr):
		status = http.StatusConflict
	case errors.As(err, &encodingErr):
		status = http.StatusUnprocessableEntity
	default:
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Warnw("optimization failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	)

	writeJSONError(w, status, processor.UserMessage(err))
}
