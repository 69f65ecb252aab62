package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sihmvp/dropout-monitor/internal/response"
)

// internalError logs err with the request id and sends a 500.
func internalError(c *gin.Context, log zerolog.Logger, err error, msg string) {
	log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg(msg)
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
