// Package api exposes the workflow controller over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/broll-flow/internal/export"
	"github.com/nguyentantai21042004/broll-flow/internal/history"
	"github.com/nguyentantai21042004/broll-flow/internal/logger"
	"github.com/nguyentantai21042004/broll-flow/internal/upload"
	"github.com/nguyentantai21042004/broll-flow/internal/workflow"
)

// HistoryReader serves past runs; nil disables the history endpoints
type HistoryReader interface {
	List(ctx context.Context) ([]history.Record, error)
	Get(ctx context.Context, id string) (*history.Record, error)
}

type API struct {
	ctrl    *workflow.Controller
	history HistoryReader
	tempDir string
	logger  logger.Logger
}

func New(ctrl *workflow.Controller, hist HistoryReader, tempDir string, log logger.Logger) http.Handler {
	api := &API{
		ctrl:    ctrl,
		history: hist,
		tempDir: tempDir,
		logger:  log,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/uploads", api.handleUpload)
	mux.HandleFunc("GET /api/status", api.handleStatus)
	mux.HandleFunc("POST /api/reset", api.handleReset)
	mux.HandleFunc("PUT /api/credential", api.handleSetCredential)
	mux.HandleFunc("DELETE /api/credential", api.handleClearCredential)
	mux.HandleFunc("GET /api/exports/subtitles.srt", api.handleSubtitles)
	mux.HandleFunc("GET /api/exports/storyboard.json", api.handleStoryboard)
	mux.HandleFunc("GET /api/exports/storyboard.docx", api.handleStoryboardDocx)
	mux.HandleFunc("GET /api/notices", api.handleNotices)
	mux.HandleFunc("GET /api/history", api.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", api.handleHistoryGet)

	return mux
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	up, err := a.receiveFile(r)
	if err != nil {
		if errors.Is(err, upload.ErrNotVideo) {
			http.Error(w, "Please upload a video file", http.StatusUnsupportedMediaType)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to read upload: %v", err), http.StatusBadRequest)
		return
	}

	run, err := a.ctrl.Submit(r.Context(), up)
	if err != nil {
		if relErr := up.Release(); relErr != nil {
			a.logger.Warn(r.Context(), "Failed to release rejected upload: %v", relErr)
		}
		switch {
		case errors.Is(err, workflow.ErrMissingCredential):
			http.Error(w, "Transcription API key is not set", http.StatusPreconditionFailed)
		case errors.Is(err, upload.ErrNotVideo):
			http.Error(w, "Please upload a video file", http.StatusUnsupportedMediaType)
		default:
			http.Error(w, fmt.Sprintf("Failed to start processing: %v", err), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"runId": run.ID})
}

// receiveFile streams the multipart "file" part straight into the temp dir
func (a *API) receiveFile(r *http.Request) (*upload.Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errors.New(`missing "file" part`)
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		defer part.Close()
		return upload.FromReader(part, part.FileName(), part.Header.Get("Content-Type"), a.tempDir)
	}
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.ctrl.Snapshot())
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	a.ctrl.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSetCredential(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.APIKey) == "" {
		http.Error(w, "api_key must not be empty", http.StatusBadRequest)
		return
	}
	a.ctrl.SetCredential(body.APIKey)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleClearCredential(w http.ResponseWriter, r *http.Request) {
	a.ctrl.ClearCredential()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSubtitles(w http.ResponseWriter, r *http.Request) {
	srt, err := a.ctrl.ExportSubtitles()
	if err != nil {
		exportError(w, err)
		return
	}
	attach(w, export.SubtitlesFilename, export.SubtitlesMIME, []byte(srt))
	a.ctrl.Notices().Publish(workflow.SubtitlesSaved)
}

func (a *API) handleStoryboard(w http.ResponseWriter, r *http.Request) {
	data, err := a.ctrl.ExportStoryboard()
	if err != nil {
		exportError(w, err)
		return
	}
	attach(w, export.StoryboardFilename, export.StoryboardMIME, data)
	a.ctrl.Notices().Publish(workflow.StoryboardSaved)
}

func (a *API) handleStoryboardDocx(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(a.tempDir, 0755); err != nil {
		http.Error(w, "Failed to prepare export", http.StatusInternalServerError)
		return
	}
	f, err := os.CreateTemp(a.tempDir, "storyboard-*.docx")
	if err != nil {
		http.Error(w, "Failed to prepare export", http.StatusInternalServerError)
		return
	}
	path := f.Name()
	f.Close()
	defer os.Remove(path)

	if err := a.ctrl.ExportStoryboardDocx(path); err != nil {
		exportError(w, err)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, "Failed to read export", http.StatusInternalServerError)
		return
	}
	attach(w, export.DocxFilename, export.DocxMIME, data)
	a.ctrl.Notices().Publish(workflow.StoryboardDocxSaved)
}

func (a *API) handleNotices(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "since must be a non-negative integer", http.StatusBadRequest)
			return
		}
		since = n
	}
	writeJSON(w, http.StatusOK, a.ctrl.Notices().Since(since))
}

func (a *API) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}
	records, err := a.history.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list history: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *API) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return
	}
	rec, err := a.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, "History record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get history: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func exportError(w http.ResponseWriter, err error) {
	if errors.Is(err, workflow.ErrNoSegments) {
		http.Error(w, "No segments to export", http.StatusConflict)
		return
	}
	http.Error(w, fmt.Sprintf("Export failed: %v", err), http.StatusInternalServerError)
}

func attach(w http.ResponseWriter, filename, mediaType string, data []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
