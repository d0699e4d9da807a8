package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/geolife-backend-go/internal/models"
	"github.com/jengzang/geolife-backend-go/internal/service"
	"github.com/jengzang/geolife-backend-go/pkg/response"
)

// QueryHandler handles HTTP requests for the analytical queries
type QueryHandler struct {
	queryService *service.QueryService
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryService *service.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

// GetDistance handles GET /api/v1/queries/distance
func (h *QueryHandler) GetDistance(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid userId parameter")
		return
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.BadRequest(c, "Invalid year parameter")
		return
	}
	mode := c.Query("mode")
	if !models.IsValidMode(mode) {
		response.BadRequest(c, "Invalid mode parameter")
		return
	}

	result, err := h.queryService.TotalDistance(c.Request.Context(), models.DistanceFilter{
		UserID: userID,
		Mode:   mode,
		Year:   year,
	})
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetAltitudeGain handles GET /api/v1/queries/altitude-gain
func (h *QueryHandler) GetAltitudeGain(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultTopUsers)))
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	ranking, err := h.queryService.AltitudeGain(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"data":  ranking,
		"count": len(ranking),
	})
}

// GetInvalidActivities handles GET /api/v1/queries/invalid-activities
func (h *QueryHandler) GetInvalidActivities(c *gin.Context) {
	minutes, err := strconv.ParseFloat(c.DefaultQuery("gapMinutes", "5"), 64)
	if err != nil || minutes <= 0 {
		response.BadRequest(c, "Invalid gapMinutes parameter")
		return
	}

	counts, err := h.queryService.InvalidActivities(c.Request.Context(), time.Duration(minutes*float64(time.Minute)))
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"data":  counts,
		"count": len(counts),
	})
}

// GetNearbyUsers handles GET /api/v1/queries/nearby
func (h *QueryHandler) GetNearbyUsers(c *gin.Context) {
	q := service.DefaultRadiusQuery()

	var err error
	if v := c.Query("lat"); v != "" {
		if q.Center.Lat, err = strconv.ParseFloat(v, 64); err != nil {
			response.BadRequest(c, "Invalid lat parameter")
			return
		}
	}
	if v := c.Query("lon"); v != "" {
		if q.Center.Lon, err = strconv.ParseFloat(v, 64); err != nil {
			response.BadRequest(c, "Invalid lon parameter")
			return
		}
	}
	if v := c.Query("radius"); v != "" {
		if q.RadiusMeters, err = strconv.ParseFloat(v, 64); err != nil || q.RadiusMeters <= 0 {
			response.BadRequest(c, "Invalid radius parameter")
			return
		}
	}

	users, err := h.queryService.UsersNearby(c.Request.Context(), q)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"query": q,
		"users": users,
		"count": len(users),
	})
}
