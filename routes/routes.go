package routes

import (
	"net/http"
	"time"

	"locumly/handlers"
	"locumly/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterPosterRoutes registers the shift-owner endpoints.
func RegisterPosterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/poster")
	{
		api.Use(middleware.JWTAuthMiddleware(middleware.RolePoster))
		api.GET("/shifts", hb.ListPosterShiftsHandler)
		api.POST("/shifts/:id/escalate", hb.EscalateShiftHandler)
		api.POST("/shifts/:id/select-level", hb.SelectLevelHandler)
		api.GET("/shifts/:id/candidates", hb.GetCandidatesHandler)
		api.GET("/shifts/:id/offers", hb.GetOffersHandler)
		api.POST("/shifts/:id/reveal", hb.RevealInterestHandler)
		api.POST("/shifts/:id/accept", hb.AcceptHandler)
		api.POST("/shifts/:id/offers/:offerId/reject", hb.RejectOfferHandler)
		api.DELETE("/shifts/:id", hb.DeleteShiftHandler)
		api.POST("/shifts/:id/share", hb.ShareShiftHandler)
	}
}

// RegisterWorkerRoutes registers the browse-side endpoints.
func RegisterWorkerRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/worker")
	{
		api.Use(middleware.JWTAuthMiddleware(middleware.RoleWorker))
		api.GET("/shifts", hb.ListWorkerShiftsHandler)
		api.POST("/shifts/:id/apply", hb.ApplyToShiftHandler)
		api.POST("/shifts/:id/reject", hb.DeclineShiftHandler)
		api.POST("/shifts/:id/save", hb.SaveShiftHandler)
		api.DELETE("/shifts/:id/save", hb.UnsaveShiftHandler)
		api.GET("/markers", hb.GetMarkersHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Locumly"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterPosterRoutes(r, hb)
	RegisterWorkerRoutes(r, hb)
	RegisterHealthRoute(r)
}
