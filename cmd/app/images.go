package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xbanchon/image-optimizer/internal/format"
	"github.com/xbanchon/image-optimizer/internal/processor"
)

var errMissingImage = errors.New("missing image upload")

type OptimizePayload struct {
	Format  string `json:"format" validate:"required,max=16"`
	Quality int    `json:"quality" validate:"gte=1,lte=100"`
}

type TargetsResponse struct {
	CurrentFormat  format.Format   `json:"current_format"`
	Targets        []format.Format `json:"targets"`
	DefaultQuality int             `json:"default_quality"`
}

type ReportResponse struct {
	processor.CompressionReport
	SourceFormat format.Format `json:"source_format"`
	TargetFormat format.Format `json:"target_format"`
	MIMEType     string        `json:"mime_type"`
	Filename     string        `json:"filename"`
	Checksum     string        `json:"checksum"`
	Summary      string        `json:"summary"`
}

func (app *application) targetsHandler(w http.ResponseWriter, r *http.Request) {
	upload, err := readImageData(r, app.config.optimizer.maxUploadBytes)
	if err != nil {
		app.uploadError(w, r, err)
		return
	}

	req := app.optimizer.NewRequest(upload)
	if err := req.Decode(); err != nil {
		app.processingError(w, r, err)
		return
	}

	targets := req.Targets()
	if len(targets) == 0 {
		app.processingError(w, r, &processor.NoTargetAvailableError{Current: req.CurrentFormat()})
		return
	}

	res := TargetsResponse{
		CurrentFormat:  req.CurrentFormat(),
		Targets:        targets,
		DefaultQuality: app.config.optimizer.defaultQuality,
	}

	if err := app.jsonResponse(w, http.StatusOK, res); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) optimizeImageHandler(w http.ResponseWriter, r *http.Request) {
	result, ok := app.optimize(w, r)
	if !ok {
		return
	}

	artifact := result.Artifact
	report := result.Report

	w.Header().Set("Content-Type", artifact.MIMEType())
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Len()))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename()))
	w.Header().Set("ETag", strconv.Quote(artifact.Checksum()))
	w.Header().Set("X-Original-Size", strconv.FormatInt(report.OriginalSize, 10))
	w.Header().Set("X-Optimized-Size", strconv.FormatInt(report.OptimizedSize, 10))
	w.Header().Set("X-Compression-Ratio", report.RatioString())
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(artifact.Bytes()); err != nil {
		app.logger.Warnw("writing artifact", "error", err.Error())
	}
}

func (app *application) reportHandler(w http.ResponseWriter, r *http.Request) {
	result, ok := app.optimize(w, r)
	if !ok {
		return
	}

	res := ReportResponse{
		CompressionReport: result.Report,
		SourceFormat:      result.SourceFormat,
		TargetFormat:      result.Artifact.Format(),
		MIMEType:          result.Artifact.MIMEType(),
		Filename:          result.Artifact.Filename(),
		Checksum:          result.Artifact.Checksum(),
		Summary:           result.Report.String(),
	}

	if err := app.jsonResponse(w, http.StatusOK, res); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) previewHandler(w http.ResponseWriter, r *http.Request) {
	result, ok := app.optimize(w, r)
	if !ok {
		return
	}

	optimized, err := app.optimizer.PreviewDecode(result.Artifact)
	if err != nil {
		app.processingError(w, r, err)
		return
	}

	comparison := processor.Compare(result.Source.Image, optimized.Image, app.config.optimizer.previewWidth)

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, comparison); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Compression-Ratio", result.Report.RatioString())
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, buf); err != nil {
		app.logger.Warnw("writing preview", "error", err.Error())
	}
}

// optimize reads the upload and its parameters and runs the pipeline. On
// failure the response has been written and ok is false.
func (app *application) optimize(w http.ResponseWriter, r *http.Request) (*processor.Result, bool) {
	upload, err := readImageData(r, app.config.optimizer.maxUploadBytes)
	if err != nil {
		app.uploadError(w, r, err)
		return nil, false
	}

	payload, err := app.readOptimizePayload(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return nil, false
	}

	result, err := app.optimizer.Optimize(r.Context(), upload, processor.Params{
		Format:  payload.Format,
		Quality: payload.Quality,
	})
	if err != nil {
		app.processingError(w, r, err)
		return nil, false
	}

	return result, true
}

func (app *application) readOptimizePayload(r *http.Request) (OptimizePayload, error) {
	payload := OptimizePayload{
		Format:  strings.TrimSpace(r.FormValue("format")),
		Quality: app.config.optimizer.defaultQuality,
	}

	if q := strings.TrimSpace(r.FormValue("quality")); q != "" {
		quality, err := strconv.Atoi(q)
		if err != nil {
			return payload, fmt.Errorf("quality must be an integer, got %q", q)
		}
		payload.Quality = quality
	}

	return payload, nil
}

func (app *application) uploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		app.requestTooLargeResponse(w, r, err)
		return
	}

	app.badRequestResponse(w, r, err)
}

// Utils
func readImageData(r *http.Request, maxMemory int64) (processor.Upload, error) {
	if maxMemory <= 0 {
		maxMemory = 10 << 20 // 10MB
	}

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return processor.Upload{}, err
	}

	image, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return processor.Upload{}, errMissingImage
		}
		return processor.Upload{}, err
	}

	defer image.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, image); err != nil {
		return processor.Upload{}, err
	}

	return processor.Upload{
		Data:     buf.Bytes(),
		Filename: header.Filename,
		Size:     header.Size,
	}, nil
}
