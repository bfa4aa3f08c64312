package adaptor

import (
	"net/http"

	"booking-engine/pkg/apperror"
	"booking-engine/pkg/utils"

	"go.uber.org/zap"
)

// handleServiceError logs by error class and renders the envelope.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	switch code := apperror.CodeOf(err); code {
	case apperror.CodeServer:
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
	case apperror.CodeGateway:
		log.Error(operation+" failed - payment provider", zap.Error(err), zap.String("operation", operation))
	default:
		log.Warn(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("code", string(code)),
		)
	}
	utils.ResponseError(w, err)
}
