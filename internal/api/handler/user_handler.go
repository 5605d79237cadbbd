package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/service"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/response"
)

type signupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=72"`
	Name       string `json:"name" binding:"required,notblank,max=50"`
	Sector     string `json:"sector" binding:"max=50"`
	BirthDate  string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	ProfileImg string `json:"profile_img"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup 회원가입
// @Summary 회원가입
// @Tags users
// @Accept json
// @Produce json
// @Param request body signupRequest true "가입 정보"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/users/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in := service.SignupInput{
		Email: req.Email, Password: req.Password, Name: req.Name,
		Sector: req.Sector, ProfileImg: req.ProfileImg,
	}
	if req.BirthDate != "" {
		// validated by the binding above
		b, _ := time.Parse("2006-01-02", req.BirthDate)
		in.BirthDate = &b
	}
	svc, err := h.users.Signup(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"service_id": svc.ID})
}

// Login 로그인
// @Summary 로그인 후 access token 발급
// @Tags users
// @Accept json
// @Produce json
// @Param request body loginRequest true "로그인 정보"
// @Success 200 {object} response.Response{result=service.LoginResult}
// @Failure 401 {object} response.Response
// @Router /api/v1/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetProfile
// @Summary 서비스 프로필 조회
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "service id"
// @Success 200 {object} response.Response{result=model.Profile}
// @Failure 404 {object} response.Response
// @Router /api/v1/services/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := pathService(c, "id")
	if !ok {
		return
	}
	p, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}
