package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/UMC-MyFit/my-fit-back-sub000/docs"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/handler"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/middleware"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

type Options struct {
	ServiceName string
	Tracing     bool
	Sentry      bool
	Swagger     bool
	// nil disables rate limiting
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// NewRouter wires the middleware chain and every route under /api/v1.
func NewRouter(h *handler.Handler, tokens middleware.TokenParser, opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = logger.L()
	}
	r := gin.New()
	r.Use(logger.Recovery(opts.Logger))
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(logger.RequestID())
	if opts.Tracing {
		r.Use(otelgin.Middleware(opts.ServiceName))
	}
	r.Use(logger.GinMiddleware(opts.Logger))
	// websocket handshakes must reach the upgrader unwrapped
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`/ws$`})))
	if opts.RateLimiter != nil {
		r.Use(middleware.RateLimit(opts.RateLimiter))
	}

	r.GET("/health", h.Health)
	if opts.Swagger {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group("/api/v1")
	users := v1.Group("/users")
	{
		users.POST("/signup", h.Signup)
		users.POST("/login", h.Login)
	}

	authed := v1.Group("", middleware.Auth(tokens))
	authed.GET("/services/:id", h.GetProfile)

	interests := authed.Group("/interests")
	{
		interests.GET("", h.ListInterests)
		interests.GET("/received", h.ListReceivedInterests)
		interests.GET("/received/count", h.CountReceivedInterests)
		interests.POST("/:recipientId", h.AddInterest)
		interests.DELETE("/:recipientId", h.RemoveInterest)
		interests.PATCH("/:recipientId/toggle", h.ToggleInterest)
		interests.GET("/:recipientId/status", h.InterestStatus)
	}

	networks := authed.Group("/networks")
	{
		networks.GET("", h.ListNetworks)
		networks.GET("/count", h.CountNetworks)
		networks.GET("/requests/received", h.ListReceivedRequests)
		networks.GET("/requests/sent", h.ListSentRequests)
		networks.POST("/request/:id", h.SendNetworkRequest)
		networks.PATCH("/request/:id/accept", h.AcceptNetwork)
		networks.PATCH("/request/:id/reject", h.RejectNetwork)
		networks.DELETE("/request/:id", h.CancelNetworkRequest)
		networks.DELETE("/disconnect/:id", h.DisconnectNetwork)
		networks.GET("/:id/status", h.NetworkStatus)
	}

	blocks := authed.Group("/blocks")
	{
		blocks.GET("", h.ListBlocks)
		blocks.POST("/:blockedId", h.BlockUser)
		blocks.DELETE("/:blockedId", h.UnblockUser)
	}

	rooms := authed.Group("/chatting-rooms")
	{
		rooms.GET("", h.GetChattingRooms)
		rooms.POST("/check-or-create", h.CheckOrCreateRoom)
		rooms.POST("/:id/messages", h.SendMessage)
		rooms.GET("/:id/messages", h.GetMessages)
		rooms.PATCH("/:id/read", h.MarkRoomRead)
		rooms.GET("/:id/ws", h.RoomSocket)
		rooms.POST("/:id/coffeechats", h.RequestCoffeechat)
	}

	coffeechats := authed.Group("/coffeechats")
	{
		coffeechats.GET("/upcoming", h.ListUpcomingCoffeechats)
		coffeechats.GET("/:id", h.GetCoffeechat)
		coffeechats.PATCH("/:id", h.UpdateCoffeechat)
		coffeechats.PATCH("/:id/accept", h.AcceptCoffeechat)
		coffeechats.PATCH("/:id/reject", h.RejectCoffeechat)
		coffeechats.PATCH("/:id/cancel", h.CancelCoffeechat)
	}

	feeds := authed.Group("/feeds")
	{
		feeds.GET("", h.ListFeeds)
		feeds.POST("", h.CreateFeed)
		feeds.GET("/:id", h.GetFeed)
		feeds.DELETE("/:id", h.DeleteFeed)
		feeds.GET("/:id/comments", h.ListComments)
		feeds.POST("/:id/comments", h.AddComment)
		feeds.PATCH("/:id/like", h.ToggleLike)
	}
	authed.DELETE("/comments/:id", h.DeleteComment)

	notifications := authed.Group("/notifications")
	{
		notifications.GET("", h.ListNotifications)
		notifications.GET("/unread-count", h.UnreadNotificationCount)
		notifications.PATCH("/:id/read", h.MarkNotificationRead)
	}
	return r
}
