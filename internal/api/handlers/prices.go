package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pfline/internal/api/middleware"
	"pfline/internal/api/models"
	"pfline/internal/data"
	"pfline/internal/model"
	"pfline/internal/stamps"
)

// PricesHandler serves GridStatus LMPs as price series.
type PricesHandler struct {
	client  *data.GridStatusClient
	logger  *zap.Logger
	metrics *middleware.Metrics
}

// NewPricesHandler creates a prices handler. A nil client disables the
// endpoint.
func NewPricesHandler(client *data.GridStatusClient, logger *zap.Logger, metrics *middleware.Metrics) *PricesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PricesHandler{client: client, logger: logger.Named("prices"), metrics: metrics}
}

// GetPrices handles GET /api/v1/prices
//
// The GridStatus API key is taken from the X-API-Key header when present,
// otherwise from the server configuration.
func (h *PricesHandler) GetPrices(c *gin.Context) {
	var q models.PricesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}
	if h.client == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "GRIDSTATUS_NOT_CONFIGURED",
				Message: "price source is not configured on this server",
			},
		})
		return
	}

	opts, err := priceOptions(q)
	if err != nil {
		h.fail(c, err)
		return
	}

	client := *h.client
	if key := c.GetHeader("X-API-Key"); key != "" {
		client.APIKey = key
	}
	resp, err := client.QueryLocationByString(c.Request.Context(), q.DatasetID, q.LocationID, q.StartDate, q.EndDate)
	if err != nil {
		h.logger.Warn("fetching prices failed",
			zap.String("dataset", q.DatasetID),
			zap.String("location", q.LocationID),
			zap.Error(err))
		h.fail(c, err)
		return
	}

	s, err := data.PriceSeries(resp.Data, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.Observe("prices", "ok")
	c.JSON(http.StatusOK, models.SeriesResponse{Series: fromSeries(s)})
}

func (h *PricesHandler) fail(c *gin.Context, err error) {
	h.metrics.Observe("prices", outcome(err))
	respondError(c, err)
}

func priceOptions(q models.PricesQuery) (data.PriceOptions, error) {
	component, err := model.ParseComponent(q.Component)
	if err != nil {
		return data.PriceOptions{}, badRequest("%s", err.Error())
	}
	opts := data.PriceOptions{
		Component: component,
		Location:  q.LocationID,
		MaxGap:    q.MaxGap,
	}
	if q.Freq != "" {
		f, err := stamps.ParseFreq(q.Freq)
		if err != nil {
			return data.PriceOptions{}, err
		}
		opts.Freq = f
	}
	if q.Timezone != "" {
		loc, err := time.LoadLocation(q.Timezone)
		if err != nil {
			return data.PriceOptions{}, badRequest("unknown timezone %q", q.Timezone)
		}
		opts.TZ = loc
	}
	return opts, nil
}
