package httpx

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/you/library-lending/services/transaction-service/internal/domain"
	"github.com/you/library-lending/services/transaction-service/internal/repository"
	"github.com/you/library-lending/services/transaction-service/internal/service"
)

type Server struct {
	svc *service.TransactionSvc
}

func NewServer(s *service.TransactionSvc) *Server {
	return &Server{svc: s}
}

func (s *Server) Register(r *gin.Engine) {
	r.POST("/transactions", s.Create)
	r.GET("/transactions", s.List)
	r.GET("/transactions/:id", s.Get)
	r.POST("/transactions/:id/return", s.MarkReturned)
	r.POST("/transactions/:id/void", s.Void)
}

type txOut struct {
	ID         string  `json:"id"`
	UserID     string  `json:"user_id"`
	BookID     string  `json:"book_id"`
	Status     string  `json:"status"`
	IssuedAt   string  `json:"issued_at"`
	ReturnedAt *string `json:"returned_at"`
}

func toOut(tx *domain.Transaction) txOut {
	out := txOut{
		ID:       tx.ID,
		UserID:   tx.UserID,
		BookID:   tx.BookID,
		Status:   string(tx.Status),
		IssuedAt: tx.IssuedAt.Format(time.RFC3339),
	}
	if tx.ReturnedAt != nil {
		s := tx.ReturnedAt.Format(time.RFC3339)
		out.ReturnedAt = &s
	}
	return out
}

// POST /transactions
func (s *Server) Create(c *gin.Context) {
	var in struct {
		UserID string `json:"user_id" binding:"required"`
		BookID string `json:"book_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := s.svc.Create(c, in.UserID, in.BookID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toOut(tx))
}

// GET /transactions/:id
func (s *Server) Get(c *gin.Context) {
	tx, err := s.svc.Get(c, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction_not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toOut(tx))
}

// GET /transactions?user_id=&book_id=&status=&page=0&page_size=20
func (s *Server) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	txs, err := s.svc.List(c, int32(page), int32(size), c.Query("user_id"), c.Query("book_id"), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]txOut, 0, len(txs))
	for i := range txs {
		out = append(out, toOut(&txs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": out})
}

// POST /transactions/:id/return — idempotent; already_returned flags a replay
func (s *Server) MarkReturned(c *gin.Context) {
	tx, already, err := s.svc.MarkReturned(c, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction_not_found"})
		case errors.Is(err, repository.ErrTerminalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "transaction_voided"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": toOut(tx), "already_returned": already})
}

// POST /transactions/:id/void — saga compensation arm
func (s *Server) Void(c *gin.Context) {
	tx, err := s.svc.Void(c, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "transaction_not_found"})
		case errors.Is(err, repository.ErrTerminalStatus):
			c.JSON(http.StatusConflict, gin.H{"error": "transaction_returned"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, toOut(tx))
}
