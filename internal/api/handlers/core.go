package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pfline/internal/api/middleware"
	"pfline/internal/api/models"
	"pfline/internal/changefreq"
	"pfline/internal/pfline"
	"pfline/internal/series"
	"pfline/internal/stamps"
	"pfline/internal/units"
)

// CoreHandler exposes frequency conversion, reconciliation and the line
// builder.
type CoreHandler struct {
	builder pfline.Builder
	metrics *middleware.Metrics
}

// NewCoreHandler creates a handler; metrics may be nil.
func NewCoreHandler(builder pfline.Builder, metrics *middleware.Metrics) *CoreHandler {
	return &CoreHandler{builder: builder, metrics: metrics}
}

func (h *CoreHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return false
	}
	return true
}

func (h *CoreHandler) fail(c *gin.Context, op string, err error) {
	h.metrics.Observe(op, outcome(err))
	respondError(c, err)
}

// ChangeFreq handles POST /api/v1/changefreq
func (h *CoreHandler) ChangeFreq(c *gin.Context) {
	var req models.ChangeFreqRequest
	if !h.bind(c, &req) {
		return
	}
	s, err := toSeries(req.Series)
	if err != nil {
		h.fail(c, "changefreq", err)
		return
	}
	convert := changefreq.Averagable
	if req.Kind == "summable" {
		convert = changefreq.Summable
	}
	out, err := convert(s, stamps.Freq(req.Freq))
	if err != nil {
		h.fail(c, "changefreq", err)
		return
	}
	h.metrics.Observe("changefreq", "ok")
	c.JSON(http.StatusOK, models.SeriesResponse{Series: fromSeries(out)})
}

// Interop handles POST /api/v1/interop
func (h *CoreHandler) Interop(c *gin.Context) {
	var req models.InteropRequest
	if !h.bind(c, &req) {
		return
	}
	io, err := toInOp(req.Values)
	if err == nil {
		io, err = assignAgnostic(io, req.AssignAgnostic)
	}
	if err == nil && req.Align {
		io, err = io.ToTimeseries()
	}
	if err != nil {
		h.fail(c, "interop", err)
		return
	}
	h.metrics.Observe("interop", "ok")
	c.JSON(http.StatusOK, fromInOp(io))
}

// Pfline handles POST /api/v1/pfline
func (h *CoreHandler) Pfline(c *gin.Context) {
	var req models.PflineRequest
	if !h.bind(c, &req) {
		return
	}
	tbl, err := h.buildTable(req)
	if err != nil {
		h.fail(c, "pfline", err)
		return
	}
	h.metrics.Observe("pfline", "ok")

	resp := models.PflineResponse{Kind: tbl.Kind().String(), Series: map[string]models.SeriesPayload{}}
	var cols []series.Series
	switch tbl.Kind() {
	case pfline.KindPrice:
		cols = []series.Series{tbl.P()}
	case pfline.KindVolume:
		cols = []series.Series{tbl.W(), tbl.Q()}
	default:
		cols = []series.Series{tbl.W(), tbl.Q(), tbl.P(), tbl.R()}
	}
	for _, s := range cols {
		resp.Series[s.Name()] = fromSeries(s)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CoreHandler) buildTable(req models.PflineRequest) (pfline.Table, error) {
	io, err := toInOp(req.Values)
	if err != nil {
		return pfline.Table{}, err
	}
	if io, err = assignAgnostic(io, req.AssignAgnostic); err != nil {
		return pfline.Table{}, err
	}
	b := h.builder
	if t := req.Tolerance; t != nil {
		if t.RTol != nil {
			b.Tolerance.RTol = *t.RTol
		}
		if t.ATol != nil {
			b.Tolerance.ATol = *t.ATol
		}
		if t.Zero != nil {
			b.Tolerance.Zero = *t.Zero
		}
	}
	tbl, err := b.MakeTable(pfline.FromInOp(io))
	if err != nil || req.Freq == "" {
		return tbl, err
	}
	return tbl.Asfreq(stamps.Freq(req.Freq))
}

var freqDescriptions = map[stamps.Freq]string{
	stamps.QuarterHour: "quarter-hour",
	stamps.Hour:        "hour",
	stamps.Day:         "day",
	stamps.Month:       "month",
	stamps.Quarter:     "quarter",
	stamps.Year:        "year",
}

// ListFrequencies handles GET /api/v1/frequencies
func ListFrequencies(c *gin.Context) {
	out := make([]models.FrequencyInfo, len(stamps.Frequencies))
	for i, f := range stamps.Frequencies {
		out[i] = models.FrequencyInfo{Alias: string(f), Description: freqDescriptions[f]}
	}
	c.JSON(http.StatusOK, gin.H{
		"frequencies": out,
		"attributes":  units.AttrList(),
	})
}
