package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"arena/internal/shared/apperrors"
	"arena/internal/shared/logger"
	"arena/internal/shared/middleware"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(err, zap.String("component", "http_response"))
	}
}

// writeError maps err to a status and a client-safe body. Causes of 5xx
// errors are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	resp := errorResponse{Error: apperrors.PublicMessage(err)}
	if appErr, ok := apperrors.As(err); ok && appErr.Kind == apperrors.KindValidation {
		resp.Field = appErr.Field
	}

	if status >= http.StatusInternalServerError {
		logger.ErrorCtx(r.Context(), err,
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
	}
	writeJSON(w, status, resp)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

// requireUser reads the caller's id attached by the identity middleware.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return "", false
	}
	return userID, true
}
