package api

import (
	"moralsim/internal/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondError(c *gin.Context, err error) {
	err = errors.FromDomain(err)
	code := errors.GetCode(err)
	if code == "UNKNOWN" {
		code = errors.CodeInternalError
	}
	c.AbortWithStatusJSON(errors.HTTPStatus(code), ErrorResponse{Code: code, Message: err.Error()})
}
