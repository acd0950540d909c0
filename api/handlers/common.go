package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/types"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a *types.Error onto its HTTP status, defaulting by code
// when the error carries none.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var te *types.Error
	if !errors.As(err, &te) {
		te = types.NewError(types.ErrInternalError, err.Error())
	}
	status := te.HTTPStatus
	if status == 0 {
		switch te.Code {
		case types.ErrWorkflowNotFound:
			status = http.StatusNotFound
		case types.ErrInvalidRequest, types.ErrInvalidGraph,
			types.ErrInvalidRouteRename, types.ErrNotRouter:
			status = http.StatusBadRequest
		case types.ErrDuplicateNode, types.ErrSlotOccupied,
			types.ErrProtectedNode, types.ErrRouterConnected:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("code", string(te.Code)), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Code: te.Code, Message: te.Message})
}
