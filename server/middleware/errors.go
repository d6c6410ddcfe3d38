package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// writeError writes an AppError body for middleware that runs outside Gin.
func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.Status())
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
