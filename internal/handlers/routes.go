package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/collegeconnect/backend/internal/middleware"
)

// RegisterRoutes wires the full API onto the router
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // Configure properly for production
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		// Authentication routes (public)
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimit(20, time.Minute))
		{
			authGroup.POST("/register", h.Register)
			authGroup.GET("/verify-email", h.VerifyEmail)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/forgot-password", h.ForgotPassword)
			authGroup.POST("/reset-password", h.ResetPassword)
			authGroup.POST("/change-password", middleware.Authenticate(h.authService), h.ChangePassword)
		}

		// Public directory and support routes
		api.GET("/colleges", middleware.RateLimit(60, time.Minute), h.SearchColleges)
		api.POST("/contact", middleware.RateLimit(5, time.Minute), h.SubmitContact)

		authed := api.Group("")
		authed.Use(middleware.Authenticate(h.authService))

		// Account routes; proof upload stays open to unverified users
		users := authed.Group("/users")
		{
			users.GET("/me", h.GetMe)
			users.PUT("/me", h.UpdateProfile)
			users.POST("/me/verification", h.SubmitVerificationProof)
			users.GET("/search", middleware.RequireVerified(), h.SearchUsers)
			users.GET("/:id", middleware.RequireVerified(), h.GetUser)
		}

		// Everything below requires a verified account
		verified := authed.Group("")
		verified.Use(middleware.RequireVerified())

		friends := verified.Group("/friends")
		{
			friends.GET("", h.ListFriends)
			friends.GET("/requests", h.ListFriendRequests)
			friends.POST("/requests/:id", h.SendFriendRequest)
			friends.POST("/requests/:id/accept", h.AcceptFriendRequest)
			friends.POST("/requests/:id/decline", h.DeclineFriendRequest)
			friends.DELETE("/:id", h.Unfriend)
			friends.GET("/blocked", h.ListBlockedUsers)
			friends.POST("/blocked/:id", h.BlockUser)
			friends.DELETE("/blocked/:id", h.UnblockUser)
		}

		chat := verified.Group("/chat")
		{
			chat.GET("/inbox", h.ChatInbox)
			chat.GET("/unread", h.UnreadCount)
			chat.GET("/unread/users", h.ChatUnreadUsers)
			chat.GET("/history/:email", h.ChatHistory)
		}

		items := verified.Group("/marketplace")
		{
			items.POST("", h.CreateItem)
			items.GET("", h.ListItems)
			items.GET("/:id", h.GetItem)
			items.PATCH("/:id/status", h.UpdateItemStatus)
			items.DELETE("/:id", h.DeleteItem)
			items.POST("/:id/comments", h.AddItemComment)
			items.POST("/:id/comments/:commentId/replies", h.AddItemReply)
		}

		posts := verified.Group("/forum")
		{
			posts.POST("", h.CreatePost)
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)
			posts.PUT("/:id", h.UpdatePost)
			posts.POST("/:id/replies", h.ReplyToPost)
			posts.PUT("/:id/replies/:replyId", h.EditPostReply)
			posts.DELETE("/:id/replies/:replyId", h.DeletePostReply)
			posts.DELETE("/:id", h.DeletePost)
		}

		trips := verified.Group("/trips")
		{
			trips.POST("", h.CreateTrip)
			trips.GET("", h.ListTrips)
			trips.POST("/:id/join", h.JoinTrip)
			trips.POST("/:id/requests/:userId/approve", h.ApproveTripRequest)
			trips.POST("/:id/requests/:userId/decline", h.DeclineTripRequest)
			trips.DELETE("/:id", h.DeleteTrip)
		}

		notifications := verified.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("/:id/read", h.MarkNotificationRead)
			notifications.POST("/read-all", h.MarkAllNotificationsRead)
		}

		verified.POST("/reports", h.CreateReport)

		// Moderation routes
		mod := authed.Group("/moderation")
		mod.Use(middleware.RequireModerator())
		{
			mod.GET("/reports", h.ListReports)
			mod.POST("/reports/:id/resolve", h.ResolveReport)
			mod.GET("/verifications", h.ListPendingVerifications)
			mod.POST("/verifications/:id/review", h.ReviewVerification)
			mod.POST("/users/:id/ban", h.BanUser)
			mod.POST("/users/:id/unban", h.UnbanUser)
			mod.GET("/users/banned", h.ListBannedUsers)
			mod.GET("/contact", h.ListContactMessages)
			mod.POST("/contact/:id/reply", h.ReplyContactMessage)
			mod.DELETE("/contact/:id", h.DeleteContactMessage)
			mod.PUT("/users/:id/role", middleware.RequireAdmin(), h.SetUserRole)
		}
	}

	// Realtime chat; the handshake does its own token check so the
	// route skips the HTTP auth middleware.
	if h.wsHandler != nil {
		r.GET("/ws", h.wsHandler.HandleWebSocket)
		r.GET("/ws/stats", middleware.Authenticate(h.authService), middleware.RequireModerator(), h.wsHandler.HandleStats)
		r.GET("/ws/online/:email", middleware.Authenticate(h.authService), middleware.RequireVerified(), h.wsHandler.HandleOnlineStatus)
	}
}
