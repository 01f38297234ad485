package delivery

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	authdomain "inboxai-backend/internal/auth/domain"
	calendardto "inboxai-backend/internal/calendar/dto"
	"inboxai-backend/internal/calendar/usecase"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendarUsecase usecase.CalendarUsecase
}

func NewCalendarHandler(calendarUsecase usecase.CalendarUsecase) *CalendarHandler {
	return &CalendarHandler{
		calendarUsecase: calendarUsecase,
	}
}

func currentUser(c *gin.Context) *authdomain.User {
	user, _ := c.Get("user")
	return user.(*authdomain.User)
}

func (h *CalendarHandler) Sync(c *gin.Context) {
	count, err := h.calendarUsecase.SyncEvents(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": count})
}

func (h *CalendarHandler) GetEvents(c *gin.Context) {
	events, err := h.calendarUsecase.GetEvents(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

func (h *CalendarHandler) GetEventByID(c *gin.Context) {
	event, err := h.calendarUsecase.GetEventByID(c.GetString("userID"), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *CalendarHandler) GetUpcomingEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	events, err := h.calendarUsecase.GetUpcomingEvents(c.GetString("userID"), time.Now(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "total": len(events)})
}

func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req calendardto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.calendarUsecase.CreateEvent(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	var req calendardto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event, err := h.calendarUsecase.UpdateEvent(c.Request.Context(), currentUser(c), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	deleted, err := h.calendarUsecase.DeleteEvent(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *CalendarHandler) GetAnalytics(c *gin.Context) {
	analytics := h.calendarUsecase.GetAnalytics(c.GetString("userID"), time.Now())
	c.JSON(http.StatusOK, analytics)
}

func (h *CalendarHandler) GetFreeSlots(c *gin.Context) {
	req := calendardto.FreeSlotsRequest{MinGapMinutes: 60, HorizonDays: 7}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slots := h.calendarUsecase.FindFreeSlots(c.GetString("userID"), time.Now(), req.MinGapMinutes, req.HorizonDays)
	c.JSON(http.StatusOK, gin.H{"free_slots": slots, "total": len(slots)})
}

func (h *CalendarHandler) ClearEvents(c *gin.Context) {
	h.calendarUsecase.ClearEvents(c.GetString("userID"))
	c.JSON(http.StatusOK, gin.H{"message": "events cleared"})
}
