package response

import "github.com/gin-gonic/gin"

var (
	ParamError            = gin.H{"code": 10001, "message": "param error"}
	ParamErrorWithMessage = func(message string) gin.H {
		return gin.H{"code": 10001, "message": message}
	}

	InternalError = gin.H{"code": 10002, "message": "internal error"}
	NotFoundError = gin.H{"code": 10003, "message": "image not found"}

	NoImageError      = gin.H{"code": 20001, "message": "no image found in response"}
	InvalidImageError = gin.H{"code": 20002, "message": "response image is not a valid data url"}
	PromptError       = gin.H{"code": 20003, "message": "prompt rejected by the image service"}
	UpstreamError     = gin.H{"code": 20004, "message": "image service unavailable"}

	SuccessWithData = func(data interface{}) gin.H {
		return gin.H{"code": 0, "data": data}
	}
)
