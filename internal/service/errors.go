package service

import (
	"net/http"

	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

var (
	ErrDuplicateEmail      = apperrors.NewDomainError("DUPLICATE_EMAIL", "email already registered", http.StatusConflict, nil)
	ErrInvalidCredentials  = apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
	ErrInvalidStatus       = apperrors.NewDomainError("INVALID_STATUS", "invalid report status", http.StatusBadRequest, nil)
	ErrReportNotFound      = apperrors.NewDomainError("NOT_FOUND", "report not found", http.StatusNotFound, nil)
	ErrUnauthorized        = apperrors.NewDomainError("UNAUTHORIZED", "authentication required", http.StatusUnauthorized, nil)
	ErrRegistrationClosed  = apperrors.NewDomainError("FORBIDDEN", "registration is disabled", http.StatusForbidden, nil)
	ErrImageUploadFailed   = apperrors.NewDomainError("IMAGE_UPLOAD_FAILED", "image upload failed", http.StatusBadGateway, nil)
	ErrAnalysisUnavailable = apperrors.NewDomainError("ANALYSIS_UNAVAILABLE", "image analysis unavailable", http.StatusServiceUnavailable, nil)
)
