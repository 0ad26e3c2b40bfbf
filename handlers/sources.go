package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"ainews/services"
)

type SourceHandlers struct {
	sources *services.SourceService
	opml    *services.OPMLService
}

func NewSourceHandlers(sources *services.SourceService, opml *services.OPMLService) *SourceHandlers {
	return &SourceHandlers{sources: sources, opml: opml}
}

type AddSourceRequest struct {
	Name       string `json:"name"`
	URL        string `json:"url"`
	SourceType string `json:"source_type,omitempty"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

func (sh *SourceHandlers) GetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := sh.sources.GetAllSources()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: sources})
}

func (sh *SourceHandlers) AddSource(w http.ResponseWriter, r *http.Request) {
	var req AddSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	source, err := sh.sources.AddSource(req.Name, req.URL, req.SourceType)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: source})
}

func (sh *SourceHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sourceID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Invalid source ID", http.StatusBadRequest)
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := sh.sources.SetActive(sourceID, req.Active); err != nil {
		http.Error(w, "Source not found", http.StatusNotFound)
		return
	}

	source, err := sh.sources.GetSourceByID(sourceID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: source})
}

func (sh *SourceHandlers) ExportOPML(w http.ResponseWriter, r *http.Request) {
	data, err := sh.opml.ExportOPML()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/x-opml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ainews-sources.opml"`)
	w.Write(data)
}

func (sh *SourceHandlers) ImportOPML(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	result, err := sh.opml.ImportOPML(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}
