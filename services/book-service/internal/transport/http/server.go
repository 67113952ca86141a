package httpx

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/you/library-lending/services/book-service/internal/domain"
	"github.com/you/library-lending/services/book-service/internal/repository"
	"github.com/you/library-lending/services/book-service/internal/service"
)

type Server struct {
	svc *service.BookSvc
}

func NewServer(s *service.BookSvc) *Server {
	return &Server{svc: s}
}

func (s *Server) Register(r *gin.Engine) {
	r.POST("/books", s.Create)
	r.GET("/books", s.List)
	r.GET("/books/:id", s.Get)
	r.PUT("/books/:id", s.Update)
	r.DELETE("/books/:id", s.Delete)
	r.GET("/books/:id/availability", s.Availability)
	r.POST("/books/:id/adjust", s.Adjust)
}

type bookOut struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Author          string `json:"author"`
	AvailableCopies int32  `json:"available_copies"`
}

func toOut(b *domain.Book) bookOut {
	return bookOut{ID: b.ID, Title: b.Title, Author: b.Author, AvailableCopies: b.AvailableCopies}
}

// POST /books
func (s *Server) Create(c *gin.Context) {
	var in struct {
		Title           string `json:"title" binding:"required,min=1,max=200"`
		Author          string `json:"author" binding:"required,min=1,max=120"`
		AvailableCopies int32  `json:"available_copies" binding:"gte=0"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b, err := s.svc.Create(c, domain.Book{Title: in.Title, Author: in.Author, AvailableCopies: in.AvailableCopies})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toOut(b))
}

// GET /books/:id
func (s *Server) Get(c *gin.Context) {
	b, err := s.svc.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOut(b))
}

// GET /books?page=0&page_size=20&q=...
func (s *Server) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	books, err := s.svc.List(c, int32(page), int32(size), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]bookOut, 0, len(books))
	for i := range books {
		out = append(out, toOut(&books[i]))
	}
	c.JSON(http.StatusOK, gin.H{"books": out})
}

// PUT /books/:id
func (s *Server) Update(c *gin.Context) {
	var in struct {
		Title  string `json:"title" binding:"omitempty,min=1,max=200"`
		Author string `json:"author" binding:"omitempty,min=1,max=120"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]any{}
	if in.Title != "" {
		fields["title"] = in.Title
	}
	if in.Author != "" {
		fields["author"] = in.Author
	}
	b, err := s.svc.Update(c, c.Param("id"), fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOut(b))
}

// DELETE /books/:id
func (s *Server) Delete(c *gin.Context) {
	if err := s.svc.Delete(c, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /books/:id/availability
func (s *Server) Availability(c *gin.Context) {
	b, err := s.svc.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"book_id":          b.ID,
		"available_copies": b.AvailableCopies,
		"is_available":     b.IsAvailable(),
	})
}

// POST /books/:id/adjust?delta=-1
func (s *Server) Adjust(c *gin.Context) {
	delta, err := strconv.Atoi(c.Query("delta"))
	if err != nil || delta == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be a non-zero integer"})
		return
	}
	b, err := s.svc.Adjust(c, c.Param("id"), int32(delta))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
		case errors.Is(err, repository.ErrInsufficientCopies):
			c.JSON(http.StatusConflict, gin.H{"error": "insufficient_copies"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"book_id": b.ID, "available_copies": b.AvailableCopies})
}
