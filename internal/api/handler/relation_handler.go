package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

// AddInterest 관심 등록
// @Summary 관심 등록
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param recipientId path int true "대상 service id"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/interests/{recipientId} [post]
func (h *Handler) AddInterest(c *gin.Context) {
	target, ok := pathService(c, "recipientId")
	if !ok {
		return
	}
	if err := h.relService.AddInterest(c.Request.Context(), me(c), target); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, nil)
}

// RemoveInterest 관심 해제
// @Summary 관심 해제
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param recipientId path int true "대상 service id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/interests/{recipientId} [delete]
func (h *Handler) RemoveInterest(c *gin.Context) {
	target, ok := pathService(c, "recipientId")
	if !ok {
		return
	}
	if err := h.relService.RemoveInterest(c.Request.Context(), me(c), target); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleInterest
// @Summary 관심 토글
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param recipientId path int true "대상 service id"
// @Success 200 {object} response.Response
// @Router /api/v1/interests/{recipientId}/toggle [patch]
func (h *Handler) ToggleInterest(c *gin.Context) {
	target, ok := pathService(c, "recipientId")
	if !ok {
		return
	}
	on, err := h.relService.ToggleInterest(c.Request.Context(), me(c), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"is_interested": on})
}

// ListInterests 내가 관심 등록한 목록
// @Summary 보낸 관심 목록
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/interests [get]
func (h *Handler) ListInterests(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListInterests(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// ListReceivedInterests
// @Summary 받은 관심 목록
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/interests/received [get]
func (h *Handler) ListReceivedInterests(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListReceivedInterests(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// CountReceivedInterests
// @Summary 받은 관심 수
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/interests/received/count [get]
func (h *Handler) CountReceivedInterests(c *gin.Context) {
	n, err := h.relService.CountReceivedInterests(c.Request.Context(), me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// InterestStatus
// @Summary 관심 여부
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param targetId path int true "대상 service id"
// @Success 200 {object} response.Response
// @Router /api/v1/interests/{targetId}/status [get]
func (h *Handler) InterestStatus(c *gin.Context) {
	target, ok := pathService(c, "recipientId")
	if !ok {
		return
	}
	on, err := h.relService.InterestStatus(c.Request.Context(), me(c), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"is_interested": on})
}

// SendNetworkRequest 네트워크 요청
// @Summary 네트워크 요청
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param id path int true "대상 service id"
// @Success 201 {object} response.Response{result=model.Network}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/networks/request/{id} [post]
func (h *Handler) SendNetworkRequest(c *gin.Context) {
	target, ok := pathService(c, "id")
	if !ok {
		return
	}
	n, err := h.relService.SendNetworkRequest(c.Request.Context(), me(c), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, n)
}

func (h *Handler) answerNetwork(c *gin.Context, status model.NetworkStatus) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relService.UpdateNetworkRequestStatus(c.Request.Context(), id, status, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"network_id": id, "status": status})
}

// AcceptNetwork
// @Summary 네트워크 요청 수락
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param id path int true "network id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/networks/request/{id}/accept [patch]
func (h *Handler) AcceptNetwork(c *gin.Context) { h.answerNetwork(c, model.NetworkAccepted) }

// RejectNetwork
// @Summary 네트워크 요청 거절
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param id path int true "network id"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/networks/request/{id}/reject [patch]
func (h *Handler) RejectNetwork(c *gin.Context) { h.answerNetwork(c, model.NetworkRejected) }

// CancelNetworkRequest
// @Summary 보낸 네트워크 요청 취소
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param id path int true "network id"
// @Success 200 {object} response.Response
// @Router /api/v1/networks/request/{id} [delete]
func (h *Handler) CancelNetworkRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relService.CancelNetworkRequest(c.Request.Context(), id, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// DisconnectNetwork
// @Summary 네트워크 끊기
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param id path int true "network id"
// @Success 200 {object} response.Response
// @Router /api/v1/networks/disconnect/{id} [delete]
func (h *Handler) DisconnectNetwork(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.relService.DisconnectNetwork(c.Request.Context(), id, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// NetworkStatus
// @Summary 상대와의 네트워크 상태
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param targetId path int true "대상 service id"
// @Success 200 {object} response.Response
// @Router /api/v1/networks/{targetId}/status [get]
func (h *Handler) NetworkStatus(c *gin.Context) {
	target, ok := pathService(c, "id")
	if !ok {
		return
	}
	st, err := h.relService.NetworkStatus(c.Request.Context(), me(c), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"status": st})
}

// ListNetworks
// @Summary 연결된 네트워크 목록
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/networks [get]
func (h *Handler) ListNetworks(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListNetworks(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// CountNetworks
// @Summary 연결된 네트워크 수
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /api/v1/networks/count [get]
func (h *Handler) CountNetworks(c *gin.Context) {
	n, err := h.relService.CountNetworks(c.Request.Context(), me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": n})
}

// ListReceivedRequests
// @Summary 받은 네트워크 요청
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/networks/requests/received [get]
func (h *Handler) ListReceivedRequests(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListReceivedRequests(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// ListSentRequests
// @Summary 보낸 네트워크 요청
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/networks/requests/sent [get]
func (h *Handler) ListSentRequests(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListSentRequests(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// BlockUser 차단
// @Summary 차단 (관심 삭제, 네트워크 거절 처리)
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param blockedId path int true "차단할 service id"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/blocks/{blockedId} [post]
func (h *Handler) BlockUser(c *gin.Context) {
	target, ok := pathService(c, "blockedId")
	if !ok {
		return
	}
	if err := h.relService.BlockUser(c.Request.Context(), me(c), target); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, nil)
}

// UnblockUser
// @Summary 차단 해제
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param blockedId path int true "차단 해제할 service id"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/blocks/{blockedId} [delete]
func (h *Handler) UnblockUser(c *gin.Context) {
	target, ok := pathService(c, "blockedId")
	if !ok {
		return
	}
	if err := h.relService.UnblockUser(c.Request.Context(), me(c), target); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListBlocks
// @Summary 차단 목록
// @Tags 관계
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.RelationPage}
// @Router /api/v1/blocks [get]
func (h *Handler) ListBlocks(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.relService.ListBlocks(c.Request.Context(), me(c), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}
