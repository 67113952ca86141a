package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/you/library-lending/services/user-service/internal/domain"
	"github.com/you/library-lending/services/user-service/internal/repository"
	"github.com/you/library-lending/services/user-service/internal/service"
)

type Server struct {
	svc *service.UserSvc
}

func NewServer(s *service.UserSvc) *Server {
	return &Server{svc: s}
}

func (s *Server) Register(r *gin.Engine) {
	r.POST("/users", s.Create)
	r.GET("/users", s.List)
	r.GET("/users/:id", s.Get)
	r.PUT("/users/:id", s.Update)
	r.DELETE("/users/:id", s.Delete)
	r.POST("/login", s.Login)
}

type userOut struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func toOut(u *domain.User) userOut {
	return userOut{ID: u.ID, Username: u.Username}
}

// POST /users
func (s *Server) Create(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required,min=3,max=64"`
		Password string `json:"password" binding:"required,min=4,max=128"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.svc.Register(c, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toOut(u))
}

// GET /users/:id — also the orchestrator's existence probe
func (s *Server) Get(c *gin.Context) {
	u, err := s.svc.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOut(u))
}

// GET /users?page=0&page_size=20
func (s *Server) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	users, err := s.svc.List(c, int32(page), int32(size))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]userOut, 0, len(users))
	for i := range users {
		out = append(out, toOut(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// PUT /users/:id
func (s *Server) Update(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"omitempty,min=3,max=64"`
		Password string `json:"password" binding:"omitempty,min=4,max=128"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.svc.Update(c, c.Param("id"), in.Username, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		case errors.Is(err, repository.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username_taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, toOut(u))
}

// DELETE /users/:id
func (s *Server) Delete(c *gin.Context) {
	if err := s.svc.Delete(c, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /login
func (s *Server) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, access, err := s.svc.Login(c, in.Username, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access, "user_id": u.ID, "username": u.Username})
}
