package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reusedev/chat-image/internal/service/http/handler"
	"github.com/reusedev/chat-image/internal/service/http/middleware"
)

func NewServer(port string, images *handler.ImageHandler) *http.Server {
	e := gin.New()
	initRouter(e, images)
	return &http.Server{Addr: port, Handler: e}
}

func initRouter(e *gin.Engine, images *handler.ImageHandler) {
	e.Use(gin.Recovery(), middleware.RequestLogger())
	e.GET("/healthz", handler.Healthz)
	v1 := e.Group("/v1")
	file := v1.Group("/images")
	{
		file.POST("/generations", images.Generate)
		file.POST("/edits", images.Edit)
		file.GET("", images.GetImage)
		file.GET("/file", images.GetImageFile)
	}
}
