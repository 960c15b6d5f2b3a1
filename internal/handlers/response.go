package handlers

import (
	"encoding/json"
	"net/http"

	"Agora/internal/apperrors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(err error) map[string]any {
	return map[string]any{
		"error": err.Error(),
		"code":  apperrors.CodeOf(err),
	}
}
