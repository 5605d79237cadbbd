package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

type contentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

// CreateFeed 피드 작성
// @Summary 피드 작성
// @Tags 피드
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body contentRequest true "본문"
// @Success 201 {object} response.Response{result=model.Feed}
// @Router /api/v1/feeds [post]
func (h *Handler) CreateFeed(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.feeds.CreateFeed(c.Request.Context(), me(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, f)
}

// ListFeeds
// @Summary 피드 목록 (최신순)
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param cursor query int false "마지막으로 받은 feed id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.FeedPage}
// @Router /api/v1/feeds [get]
func (h *Handler) ListFeeds(c *gin.Context) {
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.feeds.ListFeeds(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// GetFeed
// @Summary 피드 상세
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param id path int true "feed id"
// @Success 200 {object} response.Response{result=service.FeedDetail}
// @Router /api/v1/feeds/{id} [get]
func (h *Handler) GetFeed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	f, err := h.feeds.GetFeed(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, f)
}

// DeleteFeed
// @Summary 피드 삭제 (작성자만)
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param id path int true "feed id"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /api/v1/feeds/{id} [delete]
func (h *Handler) DeleteFeed(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.feeds.DeleteFeed(c.Request.Context(), id, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AddComment
// @Summary 댓글 작성
// @Tags 피드
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "feed id"
// @Param request body contentRequest true "댓글"
// @Success 201 {object} response.Response{result=model.FeedComment}
// @Router /api/v1/feeds/{id}/comments [post]
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	cm, err := h.feeds.AddComment(c.Request.Context(), id, me(c), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cm)
}

// ListComments
// @Summary 댓글 목록
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param id path int true "feed id"
// @Param cursor query int false "마지막으로 받은 comment id"
// @Param limit query int false "페이지 크기 (1-50)" default(10)
// @Success 200 {object} response.Response{result=service.CommentPage}
// @Router /api/v1/feeds/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, ok := pageQuery(c)
	if !ok {
		return
	}
	page, err := h.feeds.ListComments(c.Request.Context(), id, p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// DeleteComment
// @Summary 댓글 삭제 (작성자만)
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param id path int true "comment id"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.feeds.DeleteComment(c.Request.Context(), id, me(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ToggleLike
// @Summary 좋아요 토글
// @Tags 피드
// @Produce json
// @Security BearerAuth
// @Param id path int true "feed id"
// @Success 200 {object} response.Response
// @Router /api/v1/feeds/{id}/like [patch]
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	liked, err := h.feeds.ToggleLike(c.Request.Context(), id, me(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"liked": liked})
}
