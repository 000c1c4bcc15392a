package servehttp

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"
	"wetlands/bizerror"
	"wetlands/domain/observation"
	"wetlands/domain/sensor"
	"wetlands/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterExportHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/export", middleWares...)

	handler := &exportHandler{}

	g.GET("observations", handler.handleExportObservations)
	g.GET("sensor-readings", handler.handleExportReadings)
}

type exportHandler struct {
}

func (h *exportHandler) handleExportObservations(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if !s.Can("export", "data") {
		panic(bizerror.ErrForbidden)
	}

	query := observation.ObservationQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := observation.QueryObservationsFunc(query, s)
	if err != nil {
		panic(err)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "wetlandId", "species", "count", "notes", "observerId", "observeTime"})
	for _, o := range records {
		_ = w.Write([]string{o.ID.String(), o.WetlandID.String(), o.Species,
			strconv.Itoa(o.Count), o.Notes, o.ObserverID.String(),
			o.ObserveTime.Time().Format(time.RFC3339Nano)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		panic(err)
	}

	c.Header("Content-Disposition", `attachment; filename="observations.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *exportHandler) handleExportReadings(c *gin.Context) {
	s := session.ExtractSessionFromGinContext(c)
	if !s.Can("export", "data") {
		panic(bizerror.ErrForbidden)
	}

	query := sensor.ReadingQuery{}
	if err := c.ShouldBindQuery(&query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	records, err := sensor.QueryReadingsFunc(query, s)
	if err != nil {
		panic(err)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"id", "sensorId", "wetlandId", "timestamp",
		"temperature", "ph", "dissolvedOxygen", "turbidity"})
	for _, r := range records {
		_ = w.Write([]string{r.ID.String(), r.SensorID.String(), r.WetlandID.String(),
			r.Timestamp.Time().Format(time.RFC3339Nano),
			formatMeasure(r.Temperature), formatMeasure(r.PH),
			formatMeasure(r.DissolvedOxygen), formatMeasure(r.Turbidity)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		panic(err)
	}

	c.Header("Content-Disposition", `attachment; filename="sensor-readings.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

func formatMeasure(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
