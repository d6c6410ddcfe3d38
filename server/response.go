package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/vidscribe/errors"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// appErrorer is implemented by errors that carry their own AppError
// rendering, such as pipeline stage failures.
type appErrorer interface {
	AppError() *apperrors.AppError
}

// ToAppError converts err into the AppError sent to clients. Errors with an
// AppError method are rendered by it; other errors without an AppError in
// their chain become a generic 500.
func ToAppError(err error) *apperrors.AppError {
	var conv appErrorer
	if errors.As(err, &conv) {
		return conv.AppError()
	}
	return apperrors.Wrap(err)
}

// RespondWithError writes err as the structured error body.
func RespondWithError(c *gin.Context, err error) {
	appErr := ToAppError(err)
	c.AbortWithStatusJSON(appErr.Status(), appErr.ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondCreated sends a 201 response wrapping data.
func RespondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, DataResponse{Data: data})
}
