package handlers

import (
	"encoding/json"
	"net/http"

	"ainews/services"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type AutomationHandlers struct {
	automation *services.AutomationService
}

func NewAutomationHandlers(automation *services.AutomationService) *AutomationHandlers {
	return &AutomationHandlers{automation: automation}
}

func (ah *AutomationHandlers) Initialize(w http.ResponseWriter, r *http.Request) {
	result := ah.automation.Initialize(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (ah *AutomationHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := ah.automation.GetStatus()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: status})
}

func (ah *AutomationHandlers) TriggerFetch(w http.ResponseWriter, r *http.Request) {
	result := ah.automation.TriggerManualFetch(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (ah *AutomationHandlers) TriggerSummaryProcessing(w http.ResponseWriter, r *http.Request) {
	result := ah.automation.TriggerManualSummaryProcessing(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (ah *AutomationHandlers) Cleanup(w http.ResponseWriter, r *http.Request) {
	result := ah.automation.PerformCleanup(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (ah *AutomationHandlers) Health(w http.ResponseWriter, r *http.Request) {
	report := ah.automation.CheckSystemHealth(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
