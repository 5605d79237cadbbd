package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

// ListNotifications
// @Summary 알림 목록
// @Tags 알림
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.NotificationPage}
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.notifications.List(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// UnreadNotificationCount
// @Summary 안 읽은 알림 수
// @Tags 알림
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/notifications/unread-count [get]
func (h *Handler) UnreadNotificationCount(c *gin.Context) {
	n, err := h.notifications.UnreadCount(c.Request.Context(), me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// MarkNotificationRead
// @Summary 알림 읽음 처리
// @Tags 알림
// @Produce json
// @Security BearerAuth
// @Param id path int true "notification id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/notifications/{id}/read [patch]
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), id, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
