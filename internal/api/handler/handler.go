package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/api/middleware"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

const defaultLimit = 10

// Handler holds every HTTP endpoint. Services are required; the subscriber
// may be nil, in which case the websocket route answers 503.
type Handler struct {
	users         service.UserService
	relService    service.RelationshipService
	chat          service.ChatService
	coffeechats   service.CoffeechatService
	feeds         service.FeedService
	notifications service.NotificationService
	subscriber    realtime.Subscriber
	upgrader      websocket.Upgrader
	// lifetime ends hijacked websocket sessions on shutdown
	lifetime      context.Context
}

type Deps struct {
	Users         service.UserService
	Relations     service.RelationshipService
	Chat          service.ChatService
	Coffeechats   service.CoffeechatService
	Feeds         service.FeedService
	Notifications service.NotificationService
	Subscriber    realtime.Subscriber
	Lifetime      context.Context
}

func New(d Deps) *Handler {
	if d.Lifetime == nil {
		d.Lifetime = context.Background()
	}
	return &Handler{
		lifetime:      d.Lifetime,
		users:         d.Users,
		relService:    d.Relations,
		chat:          d.Chat,
		coffeechats:   d.Coffeechats,
		feeds:         d.Feeds,
		notifications: d.Notifications,
		subscriber:    d.Subscriber,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func me(c *gin.Context) model.ServiceID { return middleware.ServiceID(c) }

// pathID parses a positive integer path parameter, writing 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func pathService(c *gin.Context, name string) (model.ServiceID, bool) {
	id, ok := pathID(c, name)
	return model.ServiceID(id), ok
}

// cursorQuery reads ?cursor=; absent means the first page.
func cursorQuery(c *gin.Context) (*int64, bool) {
	raw := c.Query("cursor")
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		response.BadRequest(c, "invalid cursor")
		return nil, false
	}
	return &v, true
}

// pageQuery reads ?cursor= and ?limit=. The range of limit is checked by the service.
func pageQuery(c *gin.Context) (service.Page, bool) {
	cursor, ok := cursorQuery(c)
	if !ok {
		return service.Page{}, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil {
		response.BadRequest(c, "invalid limit")
		return service.Page{}, false
	}
	return service.Page{Cursor: cursor, Limit: limit}, true
}

// Health
// @Summary 헬스 체크
// @Tags system
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
