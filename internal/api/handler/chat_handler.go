package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

type checkRoomRequest struct {
	TargetServiceID int64 `json:"target_service_id" binding:"required,gt=0"`
}

type sendMessageRequest struct {
	DetailMessage string            `json:"detail_message" binding:"required,notblank"`
	Type          model.MessageType `json:"type" binding:"omitempty,oneof=TEXT"`
}

// CheckOrCreateRoom 채팅방 확인 또는 생성
// @Summary 상대와의 채팅방을 찾고 없으면 만든다
// @Tags 채팅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body checkRoomRequest true "상대 service id"
// @Success 200 {object} response.Response{result=service.RoomCheck}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/chatting-rooms/check-or-create [post]
func (h *Handler) CheckOrCreateRoom(c *gin.Context) {
	var req checkRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	rc, err := h.chat.CheckOrCreateRoom(c.Request.Context(), me(c), model.ServiceID(req.TargetServiceID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, rc)
}

// GetChattingRooms
// @Summary 내 채팅방 목록 (최근 대화 순)
// @Tags 채팅
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "이전 페이지의 next_cursor"
// @Success 200 {object} response.Response{result=service.RoomPage}
// @Router /api/v1/chatting-rooms [get]
func (h *Handler) GetChattingRooms(c *gin.Context) {
	cursor, ok := cursorQuery(c)
	if !ok {
		return
	}
	page, err := h.chat.GetChattingRooms(c.Request.Context(), me(c), cursor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// SendMessage 메시지 전송
// @Summary 메시지 전송
// @Tags 채팅
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "chatting room id"
// @Param request body sendMessageRequest true "메시지"
// @Success 201 {object} response.Response{result=model.Message}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/chatting-rooms/{id}/messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	msg, err := h.chat.SendMessage(c.Request.Context(), service.SendMessageInput{
		RoomID:   roomID,
		SenderID: me(c),
		Text:     req.DetailMessage,
		Type:     req.Type,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// GetMessages 메시지 조회
// @Summary 메시지 20개씩 오름차순 조회
// @Tags 채팅
// @Produce json
// @Security BearerAuth
// @Param id path int true "chatting room id"
// @Param cursor query int false "이전 페이지의 next_cursor"
// @Success 200 {object} response.Response{result=service.MessagePage}
// @Failure 403 {object} response.Response
// @Router /api/v1/chatting-rooms/{id}/messages [get]
func (h *Handler) GetMessages(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	cursor, ok := cursorQuery(c)
	if !ok {
		return
	}
	page, err := h.chat.GetMessages(c.Request.Context(), roomID, me(c), cursor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// MarkRoomRead
// @Summary 채팅방 읽음 처리
// @Tags 채팅
// @Produce json
// @Security BearerAuth
// @Param id path int true "chatting room id"
// @Success 200 {object} response.Response
// @Router /api/v1/chatting-rooms/{id}/read [patch]
func (h *Handler) MarkRoomRead(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.chat.MarkRoomRead(c.Request.Context(), roomID, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
