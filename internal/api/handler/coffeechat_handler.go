package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

type coffeechatRequest struct {
	Title       string    `json:"title" binding:"required,notblank,max=100"`
	Place       string    `json:"place" binding:"required,notblank,max=255"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type coffeechatUpdateRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=100"`
	Place       *string    `json:"place" binding:"omitempty,max=255"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// RequestCoffeechat 커피챗 요청
// @Summary 채팅방에서 커피챗 요청
// @Tags 커피챗
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "chatting room id"
// @Param request body coffeechatRequest true "일정"
// @Success 201 {object} response.Response{result=model.Coffeechat}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/chatting-rooms/{id}/coffeechats [post]
func (h *Handler) RequestCoffeechat(c *gin.Context) {
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req coffeechatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cc, err := h.coffeechats.Request(c.Request.Context(), service.CoffeechatRequest{
		RoomID:      roomID,
		RequesterID: me(c),
		Title:       req.Title,
		Place:       req.Place,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cc)
}

type coffeechatAction func(ctx context.Context, id int64, acting model.ServiceID) (*model.Coffeechat, error)

func (h *Handler) coffeechatStep(c *gin.Context, act coffeechatAction) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cc, err := act(c.Request.Context(), id, me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cc)
}

// AcceptCoffeechat
// @Summary 커피챗 수락 (받은 사람만)
// @Tags 커피챗
// @Produce json
// @Security BearerAuth
// @Param id path int true "coffeechat id"
// @Success 200 {object} response.Response{result=model.Coffeechat}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/coffeechats/{id}/accept [patch]
func (h *Handler) AcceptCoffeechat(c *gin.Context) { h.coffeechatStep(c, h.coffeechats.Accept) }

// RejectCoffeechat
// @Summary 커피챗 거절 (받은 사람만)
// @Tags 커피챗
// @Produce json
// @Security BearerAuth
// @Param id path int true "coffeechat id"
// @Success 200 {object} response.Response{result=model.Coffeechat}
// @Router /api/v1/coffeechats/{id}/reject [patch]
func (h *Handler) RejectCoffeechat(c *gin.Context) { h.coffeechatStep(c, h.coffeechats.Reject) }

// CancelCoffeechat
// @Summary 커피챗 취소
// @Tags 커피챗
// @Produce json
// @Security BearerAuth
// @Param id path int true "coffeechat id"
// @Success 200 {object} response.Response{result=model.Coffeechat}
// @Router /api/v1/coffeechats/{id}/cancel [patch]
func (h *Handler) CancelCoffeechat(c *gin.Context) { h.coffeechatStep(c, h.coffeechats.Cancel) }

// UpdateCoffeechat
// @Summary 커피챗 정보 수정 (요청자만, PENDING 상태에서)
// @Tags 커피챗
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "coffeechat id"
// @Param request body coffeechatUpdateRequest true "바꿀 필드"
// @Success 200 {object} response.Response{result=model.Coffeechat}
// @Router /api/v1/coffeechats/{id} [patch]
func (h *Handler) UpdateCoffeechat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req coffeechatUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cc, err := h.coffeechats.Update(c.Request.Context(), id, me(c), service.CoffeechatUpdate{
		Title: req.Title, Place: req.Place, ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cc)
}

// GetCoffeechat
// @Summary 커피챗 상세
// @Tags 커피챗
// @Produce json
// @Security BearerAuth
// @Param id path int true "coffeechat id"
// @Success 200 {object} response.Response{result=model.Coffeechat}
// @Router /api/v1/coffeechats/{id} [get]
func (h *Handler) GetCoffeechat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cc, err := h.coffeechats.Get(c.Request.Context(), id, me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, cc)
}

// ListUpcomingCoffeechats
// @Summary 다가오는 커피챗
// @Tags 커피챗
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/coffeechats/upcoming [get]
func (h *Handler) ListUpcomingCoffeechats(c *gin.Context) {
	list, err := h.coffeechats.ListUpcoming(c.Request.Context(), me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"coffeechats": list})
}
