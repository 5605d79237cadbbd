package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/realtime"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

// RoomSocket 실시간 구독
// @Summary 채팅방 실시간 이벤트 구독 (websocket)
// @Tags 채팅
// @Security BearerAuth
// @Param id path int true "chatting room id"
// @Param token query string false "access token (헤더를 못 쓰는 클라이언트용)"
// @Success 101
// @Failure 403 {object} response.Response
// @Router /api/v1/chatting-rooms/{id}/ws [get]
func (h *Handler) RoomSocket(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if h.subscriber == nil {
		response.Fail(c, http.StatusServiceUnavailable, apperr.CodeInternal, "realtime is not available", nil)
		return
	}
	caller := me(c)
	if err := h.chat.Authorize(c.Request.Context(), roomID, caller); err != nil {
		response.Error(c, err)
		return
	}
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already wrote the error response
		logger.FromGin(c).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	realtime.Relay(h.lifetime, h.subscriber, roomID, realtime.NewConnection(caller, ws))
}
