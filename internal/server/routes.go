package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/slicesapp/Slices_Api/internal/middleware"
)

func RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", middleware.Signup)
	router.POST("/login", middleware.Login)
	router.POST("/logout", middleware.AuthMiddleware(), middleware.Logout)

	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/me", middleware.GetCurrentUser)
		protected.POST("/wallet/session", middleware.ConnectWallet)

		protected.GET("/slices", middleware.GetSlices)
		protected.POST("/slices", middleware.CreateSlice)
		protected.GET("/slices/:id", middleware.GetSlice)
		protected.PUT("/slices/:id", middleware.UpdateSlice)
		protected.DELETE("/slices/:id", middleware.DeleteSlice)
		protected.POST("/slices/:id/deposit", middleware.DepositToSlice)
		protected.POST("/slices/:id/withdraw", middleware.WithdrawFromSlice)

		protected.GET("/dashboard", middleware.GetDashboard)
		protected.GET("/prices", middleware.GetPrices)
		protected.GET("/events", middleware.StreamEvents)
	}
}
