package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finance-tracker/ledgersync/internal/application/usecase/remotesync"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/integration/entrypoint/dto"
)

// SyncController handles sync trigger endpoints.
type SyncController struct {
	runSyncUseCase *remotesync.RunSyncUseCase
}

// NewSyncController creates a new sync controller instance.
func NewSyncController(runSyncUseCase *remotesync.RunSyncUseCase) *SyncController {
	return &SyncController{
		runSyncUseCase: runSyncUseCase,
	}
}

// Run handles POST /owners/:ownerId/sync requests.
func (c *SyncController) Run(ctx *gin.Context) {
	ownerID, err := strconv.ParseInt(ctx.Param("ownerId"), 10, 64)
	if err != nil || ownerID <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: "Invalid owner ID format",
			Code:  string(domainerror.ErrCodeInvalidOwnerID),
		})
		return
	}

	output, err := c.runSyncUseCase.Execute(ctx.Request.Context(), remotesync.RunSyncInput{
		OwnerID: ownerID,
	})
	if err != nil {
		c.handleSyncError(ctx, output, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSyncResultResponse(output))
}

// handleSyncError maps a fatal run error to an HTTP response. The partial
// result is included so callers can see which phases committed.
func (c *SyncController) handleSyncError(ctx *gin.Context, output *remotesync.RunSyncOutput, err error) {
	response := dto.SyncFailureResponse{
		Error: err.Error(),
	}
	if output != nil {
		result := dto.ToSyncResultResponse(output)
		response.Result = &result
	}

	var syncErr *domainerror.SyncError
	if errors.As(err, &syncErr) {
		response.Code = string(syncErr.Code)
	}

	ctx.JSON(syncErrorStatus(err), response)
}

func syncErrorStatus(err error) int {
	var syncErr *domainerror.SyncError
	if errors.As(err, &syncErr) {
		switch syncErr.Code {
		case domainerror.ErrCodeSyncInProgress:
			return http.StatusConflict
		case domainerror.ErrCodeUserNotFound:
			return http.StatusNotFound
		case domainerror.ErrCodeRemoteUnavailable, domainerror.ErrCodeLockUnavailable:
			return http.StatusServiceUnavailable
		}
	}

	switch {
	case errors.Is(err, domainerror.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domainerror.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainerror.ErrRemoteUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
