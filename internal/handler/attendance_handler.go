package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-attendance-api/internal/dto"
	"github.com/noah-isme/school-attendance-api/internal/middleware"
	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/service"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
	"github.com/noah-isme/school-attendance-api/pkg/response"
)

type attendanceService interface {
	Create(ctx context.Context, req service.CreateAttendanceRequest) (*models.Attendance, error)
	Get(ctx context.Context, id string) (*models.Attendance, error)
	Update(ctx context.Context, id string, req service.UpdateAttendanceRequest) (*models.Attendance, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.Attendance, error)
	ByDate(ctx context.Context, date time.Time) ([]models.Attendance, error)
	ByClass(ctx context.Context, classID string) ([]models.Attendance, error)
	ByDateAndClass(ctx context.Context, date time.Time, classID string) (*models.Attendance, error)
	ByRange(ctx context.Context, start, end time.Time) ([]models.Attendance, error)
}

type statsService interface {
	Dashboard(ctx context.Context) (*dto.DashboardStatsResponse, bool, error)
}

// AttendanceHandler exposes attendance recording, queries and dashboard stats.
type AttendanceHandler struct {
	service attendanceService
	stats   statsService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService, stats statsService) *AttendanceHandler {
	return &AttendanceHandler{service: service, stats: stats}
}

// Register mounts the attendance routes.
func (h *AttendanceHandler) Register(r gin.IRoutes) {
	r.POST("/attendance", h.Create)
	r.GET("/attendance", h.List)
	r.GET("/attendance/stats", h.Stats)
	r.GET("/attendance/date/:date", h.ByDate)
	r.GET("/attendance/date/:date/class/:classId", h.ByDateAndClass)
	r.GET("/attendance/class/:classId", h.ByClass)
	r.GET("/attendance/range/:startDate/:endDate", h.ByRange)
	r.GET("/attendance/:id", h.Get)
	r.PUT("/attendance/:id", h.Update)
	r.DELETE("/attendance/:id", h.Delete)
}

// Create godoc
// @Summary Record attendance for a class and day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.CreateAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Create(c *gin.Context) {
	var req service.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	record, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List godoc
// @Summary List attendance records, newest first
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Get godoc
// @Summary Get attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Update godoc
// @Summary Partially update an attendance record
// @Tags Attendance
// @Accept json
// @Produce json
// @Param id path string true "Attendance ID"
// @Param payload body service.UpdateAttendanceRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [put]
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req service.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// Delete godoc
// @Summary Delete attendance record
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Attendance record removed")
}

// ByDate godoc
// @Summary Attendance for one day, by class
// @Tags Attendance
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/date/{date} [get]
func (h *AttendanceHandler) ByDate(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	records, err := h.service.ByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// ByClass godoc
// @Summary Attendance history of a class
// @Tags Attendance
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/class/{classId} [get]
func (h *AttendanceHandler) ByClass(c *gin.Context) {
	records, err := h.service.ByClass(c.Request.Context(), strings.TrimSpace(c.Param("classId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// ByDateAndClass godoc
// @Summary Attendance of one class on one day
// @Tags Attendance
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/date/{date}/class/{classId} [get]
func (h *AttendanceHandler) ByDateAndClass(c *gin.Context) {
	date, ok := dateParam(c, "date")
	if !ok {
		return
	}
	record, err := h.service.ByDateAndClass(c.Request.Context(), date, strings.TrimSpace(c.Param("classId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record)
}

// ByRange godoc
// @Summary Attendance between two days inclusive
// @Tags Attendance
// @Produce json
// @Param startDate path string true "First day (YYYY-MM-DD)"
// @Param endDate path string true "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/range/{startDate}/{endDate} [get]
func (h *AttendanceHandler) ByRange(c *gin.Context) {
	start, ok := dateParam(c, "startDate")
	if !ok {
		return
	}
	end, ok := dateParam(c, "endDate")
	if !ok {
		return
	}
	records, err := h.service.ByRange(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records)
}

// Stats godoc
// @Summary Dashboard attendance statistics
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, stats, middleware.MetaSince(c, start))
}

func dateParam(c *gin.Context, name string) (time.Time, bool) {
	date, err := models.ParseDate(c.Param(name))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+name+", expected YYYY-MM-DD"))
		return time.Time{}, false
	}
	return date, true
}
