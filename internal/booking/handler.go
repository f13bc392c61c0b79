package booking

import (
	"context"
	"errors"
	"net/http"
	"time"

	"classbook/internal/api"
	"classbook/internal/auth"

	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is sent with 503 responses when the class lock is contended.
const retryAfterSeconds = "1"

// statusClientClosedRequest is nginx's code for a caller that hung up.
const statusClientClosedRequest = 499

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// BookClass godoc
// @Summary      Reserve a seat in a class
// @Description  Returns 201 for a new reservation and 200 with already_booked=true when the member already holds one.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      string  true  "Class ID"
// @Success      201      {object}  booking.ReserveResponse
// @Success      200      {object}  booking.ReserveResponse
// @Failure      404      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse
// @Router       /classes/{classID}/book [post]
func (h *Handler) BookClass(c *gin.Context) {
	memberID, gymID, ok := identity(c)
	if !ok {
		return
	}

	b, err := h.service.Reserve(c.Request.Context(), gymID, c.Param("classID"), memberID)
	if err != nil {
		var already *AlreadyBookedError
		if errors.As(err, &already) {
			c.JSON(http.StatusOK, ReserveResponse{Booking: already.Booking, AlreadyBooked: true})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ReserveResponse{Booking: b})
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Members may cancel their own reserved bookings; staff may cancel any booking of their gym.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  booking.Booking
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	memberID, gymID, ok := identity(c)
	if !ok {
		return
	}

	current, ok := h.loadForGym(c, gymID)
	if !ok {
		return
	}

	role, _ := auth.GetRole(c)
	if current.MemberID != memberID && role != auth.RoleStaff {
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Not your booking"})
		return
	}

	updated, err := h.service.Cancel(c.Request.Context(), current.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// ListMyBookings godoc
// @Summary      List the caller's bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   booking.Booking
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	memberID, _, ok := identity(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListMemberBookings(c.Request.Context(), memberID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// MarkAttended godoc
// @Summary      Mark a booking as attended
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  booking.Booking
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/attend [post]
func (h *Handler) MarkAttended(c *gin.Context) {
	h.staffTransition(c, h.service.MarkAttended)
}

// MarkNoShow godoc
// @Summary      Mark a booking as no-show
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  booking.Booking
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/no-show [post]
func (h *Handler) MarkNoShow(c *gin.Context) {
	h.staffTransition(c, h.service.MarkNoShow)
}

// ListClassBookings godoc
// @Summary      List every booking of a class
// @Tags         admin,bookings
// @Security     BearerAuth
// @Produce      json
// @Param        classID  path      string  true  "Class ID"
// @Success      200      {array}   booking.Booking
// @Failure      404      {object}  api.ErrorResponse
// @Router       /admin/classes/{classID}/bookings [get]
func (h *Handler) ListClassBookings(c *gin.Context) {
	_, gymID, ok := identity(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListClassBookings(c.Request.Context(), gymID, c.Param("classID"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// AttendanceAnalytics godoc
// @Summary      Attendance per class day
// @Tags         admin,analytics
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  true  "RFC3339 start (inclusive)"
// @Param        to    query     string  true  "RFC3339 end (exclusive)"
// @Success      200   {object}  booking.AttendanceResponse
// @Failure      400   {object}  api.ErrorResponse
// @Router       /admin/analytics/attendance [get]
func (h *Handler) AttendanceAnalytics(c *gin.Context) {
	_, gymID, ok := identity(c)
	if !ok {
		return
	}

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from and to query params are required"})
		return
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid from format, use RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid to format, use RFC3339"})
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "to must be after from"})
		return
	}

	stats, err := h.service.AttendanceStats(c.Request.Context(), gymID, from, to)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AttendanceResponse{From: from, To: to, Data: stats})
}

func (h *Handler) staffTransition(c *gin.Context, apply func(ctx context.Context, bookingID string) (*Booking, error)) {
	_, gymID, ok := identity(c)
	if !ok {
		return
	}

	current, ok := h.loadForGym(c, gymID)
	if !ok {
		return
	}

	updated, err := apply(c.Request.Context(), current.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *Handler) loadForGym(c *gin.Context, gymID string) (*Booking, bool) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if b.GymID != gymID {
		writeError(c, ErrBookingNotFound)
		return nil, false
	}
	return b, true
}

func identity(c *gin.Context) (memberID, gymID string, ok bool) {
	memberID, okMember := auth.GetMemberID(c)
	gymID, okGym := auth.GetGymID(c)
	if !okMember || !okGym {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return "", "", false
	}
	return memberID, gymID, true
}

func writeError(c *gin.Context, err error) {
	var invalid *InvalidTransitionError

	switch {
	case errors.Is(err, ErrClassNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
	case errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
	case errors.Is(err, ErrFullyBooked):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Class is fully booked"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  invalid.From,
			"to":    invalid.To,
		})
	case errors.Is(err, ErrBusy):
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Class is busy, please retry"})
	case errors.Is(err, context.Canceled):
		// Nobody is listening; the status only shows up in logs and metrics.
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
