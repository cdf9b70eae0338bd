package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"musicbridge/itunes/model"
)

// writeJSON writes v as JSON to the response writer.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// writeResult writes an action result with its status code.
func writeResult(w http.ResponseWriter, logger *zap.Logger, res model.ActionResult) {
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeJSON(w, logger, res)
}

// writeJSONError writes a failed action result with the given status code.
func writeJSONError(w http.ResponseWriter, logger *zap.Logger, message string, statusCode int) {
	writeResult(w, logger, model.ActionResult{Success: false, Message: message, Status: statusCode})
}
