package delivery

import (
	"errors"
	"net/http"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	emaildto "inboxai-backend/internal/email/dto"
	"inboxai-backend/internal/email/usecase"

	"github.com/gin-gonic/gin"
)

type EmailHandler struct {
	emailUsecase usecase.EmailUsecase
}

func NewEmailHandler(emailUsecase usecase.EmailUsecase) *EmailHandler {
	return &EmailHandler{
		emailUsecase: emailUsecase,
	}
}

func currentUser(c *gin.Context) *authdomain.User {
	user, _ := c.Get("user")
	return user.(*authdomain.User)
}

func (h *EmailHandler) Sync(c *gin.Context) {
	user := currentUser(c)
	count, err := h.emailUsecase.SyncEmails(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": count})
}

func (h *EmailHandler) GetEmails(c *gin.Context) {
	emails, err := h.emailUsecase.GetEmails(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

func (h *EmailHandler) GetEmailByID(c *gin.Context) {
	email, err := h.emailUsecase.GetEmailByID(c.GetString("userID"), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, email)
}

func (h *EmailHandler) CreateEmail(c *gin.Context) {
	var req emaildto.CreateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.emailUsecase.CreateEmail(c.GetString("userID"), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, email)
}

func (h *EmailHandler) UpdateEmail(c *gin.Context) {
	var req emaildto.UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := h.emailUsecase.UpdateEmail(c.Request.Context(), currentUser(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, email)
}

func (h *EmailHandler) DeleteEmail(c *gin.Context) {
	deleted, err := h.emailUsecase.DeleteEmail(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *EmailHandler) GetAnalytics(c *gin.Context) {
	analytics := h.emailUsecase.GetAnalytics(c.GetString("userID"), time.Now())
	c.JSON(http.StatusOK, analytics)
}

func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req emaildto.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.emailUsecase.SendEmail(c.Request.Context(), currentUser(c), &req); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email sent"})
}

func (h *EmailHandler) ArchiveEmail(c *gin.Context) {
	if err := h.emailUsecase.ArchiveEmail(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email archived"})
}

func (h *EmailHandler) TrashEmail(c *gin.Context) {
	if err := h.emailUsecase.TrashEmail(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email trashed"})
}

func (h *EmailHandler) SummarizeEmail(c *gin.Context) {
	summary, err := h.emailUsecase.SummarizeEmail(c.GetString("userID"), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *EmailHandler) DraftReply(c *gin.Context) {
	draft, err := h.emailUsecase.DraftReply(c.GetString("userID"), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrEmailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *EmailHandler) SemanticSearch(c *gin.Context) {
	var req emaildto.SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	emails, err := h.emailUsecase.SemanticSearch(c.Request.Context(), c.GetString("userID"), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails, "total": len(emails)})
}

func (h *EmailHandler) ClearEmails(c *gin.Context) {
	h.emailUsecase.ClearEmails(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "emails cleared"})
}
