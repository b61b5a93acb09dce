package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/regionsvc/internal/handlers"
)

func registerRegionRoutes(api *gin.RouterGroup, handler *handlers.RegionHandler) {
	if api == nil || handler == nil {
		return
	}

	regions := api.Group("/regions")
	{
		regions.GET("", handler.List)
		regions.GET("/resolve", handler.Resolve)
		regions.POST("/invalidate", handler.InvalidateAll)
		regions.GET("/:id", handler.Get)
		regions.POST("/:id/invalidate", handler.InvalidateRegion)
		regions.GET("/:id/services/:service", handler.ServiceAvailability)
		regions.POST("/:id/services/:service/invalidate", handler.InvalidateService)
	}
}
