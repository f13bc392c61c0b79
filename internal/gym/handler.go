package gym

import (
	"errors"
	"net/http"
	"strings"

	"classbook/internal/api"
	"classbook/internal/auth"
	"classbook/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

// @Summary      Create a gym
// @Description  Staff-only: register a gym (tenant)
// @Tags         admin,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.CreateGymRequest true "Gym payload"
// @Success      201 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/gyms [post]
func (h *Handler) CreateGym(c *gin.Context) {
	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(req); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	gym, err := h.service.CreateGym(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymExists):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Gym already exists"})
		default:
			logger.Error("Failed to create gym", "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create gym"})
		}
		return
	}

	c.JSON(http.StatusCreated, gym)
}

// @Summary      Create a class session
// @Description  Staff-only: schedule a class in the caller's gym
// @Tags         admin,classes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.CreateClassRequest true "Class payload"
// @Success      201 {object} gym.ClassSession
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	gymID, ok := auth.GetGymID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(req); errs != nil {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), gymID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		case errors.Is(err, ErrClassInvalid):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class data"})
		default:
			logger.Error("Failed to create class", "gym_id", gymID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create class"})
		}
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      List classes with availability
// @Description  Members see upcoming classes; the admin route includes past ones
// @Tags         classes,admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} gym.ClassWithAvailability
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /classes [get]
// @Router       /admin/classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	gymID, ok := auth.GetGymID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	onlyUpcoming := !strings.Contains(c.Request.URL.Path, "/admin/")
	classes, err := h.service.ListClasses(c.Request.Context(), gymID, onlyUpcoming)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		default:
			logger.Error("Failed to list classes", "gym_id", gymID, "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch classes"})
		}
		return
	}

	c.JSON(http.StatusOK, classes)
}

// @Summary      Get a class with availability
// @Tags         classes
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {object} gym.ClassWithAvailability
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /classes/{classID} [get]
func (h *Handler) GetClass(c *gin.Context) {
	gymID, ok := auth.GetGymID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Unauthorized"})
		return
	}

	class, err := h.service.GetClass(c.Request.Context(), c.Param("classID"))
	if err != nil {
		switch {
		case errors.Is(err, ErrClassNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		default:
			logger.Error("Failed to get class", "class_id", c.Param("classID"), "error", err)
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch class"})
		}
		return
	}

	// Classes of other gyms are not visible.
	if class.GymID != gymID {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Class not found"})
		return
	}

	c.JSON(http.StatusOK, class)
}
