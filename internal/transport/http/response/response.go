package response

import "github.com/gin-gonic/gin"

const (
	CodeOK               = 0
	CodeBadRequest       = 40000
	CodeEmptyDescription = 40001
	CodeUnknownFormat    = 40002
	CodeNoUploads        = 40003
	CodeInvalidPath      = 40004
	CodeNotFound         = 40400
	CodeNotGenerated     = 40401
	CodeRenderFailed     = 42200
	CodeInternalServer   = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
