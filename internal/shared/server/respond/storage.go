package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-workspace/internal/shared/access"
	"resume-workspace/internal/shared/storage/kv"
)

// StorageError maps a persistence failure. Quota errors are recoverable and
// get their own code so clients can keep local state and prompt for export.
func StorageError(c *gin.Context, err error) {
	if errors.Is(err, kv.ErrQuotaExceeded) {
		Error(c, http.StatusInsufficientStorage, "storage_quota_exceeded", "Storage is full. Your changes are kept in this session; export or delete old versions and retry.", nil)
		return
	}
	Error(c, http.StatusServiceUnavailable, "storage_error", "Could not reach storage. Your changes are kept in this session.", nil)
}

// AccessError maps a failed ownership check. It returns false when err is not
// an access error so the caller can keep classifying.
func AccessError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, access.ErrResumeNotFound):
		Error(c, http.StatusNotFound, "not_found", "Resume not found", nil)
	case errors.Is(err, access.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", "You do not have access to this resume", nil)
	default:
		return false
	}
	return true
}
