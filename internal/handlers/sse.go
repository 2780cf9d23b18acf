package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"rfm-segmentation/internal/models"
	"rfm-segmentation/internal/services"
)

const maxTableRows = 50

var segmentTableTemplate = template.Must(template.New("segmentTable").Parse(`
<div id="segments-content">
<table class="modern-table">
<thead><tr><th>Segment</th><th>Customers</th><th>Share</th><th>Revenue</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td><span class="segment-badge">{{.Segment}}</span></td>
<td>{{.Customers}}</td>
<td>{{printf "%.1f" .SharePct}}%</td>
<td><strong>{{.Revenue}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var clusterTableTemplate = template.Must(template.New("clusterTable").Parse(`
<div id="clusters-content">
<table class="modern-table">
<thead><tr><th>Cluster</th><th>Customers</th><th>Mean Recency</th><th>Mean Frequency</th><th>Mean Monetary</th><th>Revenue</th></tr></thead>
<tbody>
{{range .Rows}}<tr>
<td>{{.Label}}</td>
<td>{{.Customers}}</td>
<td>{{printf "%.1f" .MeanRecency}}</td>
<td>{{printf "%.1f" .MeanFrequency}}</td>
<td>{{printf "%.2f" .MeanMonetary}}</td>
<td><strong>{{.Revenue}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

const pendingHTML = `<div id="%s">Segmentation is still running</div>`

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

type segmentRow struct {
	Segment   models.Segment
	Customers int
	SharePct  float64
	Revenue   string
}

type clusterRow struct {
	models.ClusterSummary
	Revenue string
}

func (h *SSEHandlers) renderSegmentTable(data []models.SegmentSummary) (string, error) {
	if len(data) > maxTableRows {
		data = data[:maxTableRows]
	}

	rows := make([]segmentRow, 0, len(data))
	for _, s := range data {
		rows = append(rows, segmentRow{
			Segment:   s.Segment,
			Customers: s.Customers,
			SharePct:  s.Share * 100,
			Revenue:   s.Revenue.StringFixed(2),
		})
	}

	var buf strings.Builder
	err := segmentTableTemplate.Execute(&buf, map[string]any{"Rows": rows})
	return buf.String(), err
}

func (h *SSEHandlers) renderClusterTable(data []models.ClusterSummary) (string, error) {
	rows := make([]clusterRow, 0, len(data))
	for _, c := range data {
		rows = append(rows, clusterRow{ClusterSummary: c, Revenue: c.Revenue.StringFixed(2)})
	}

	var buf strings.Builder
	err := clusterTableTemplate.Execute(&buf, map[string]any{"Rows": rows})
	return buf.String(), err
}

func (h *SSEHandlers) pending(sse *datastar.ServerSentEventGenerator, ids ...string) bool {
	if h.analytics.Ready() {
		return false
	}
	for _, id := range ids {
		sse.PatchElements(fmt.Sprintf(pendingHTML, id))
	}
	return true
}

func (h *SSEHandlers) HandleSegments(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if h.pending(sse, "segments-content") {
		return
	}

	data := h.analytics.Segments()
	html, err := h.renderSegmentTable(data)
	if err != nil {
		h.logger.Error("render segment table", "error", err)
		return
	}
	sse.PatchElements(html)

	jsonData, err := json.Marshal(map[string]any{
		"segmentsData": data,
	})
	if err != nil {
		h.logger.Error("marshal segments data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleClusters(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if h.pending(sse, "clusters-content") {
		return
	}

	html, err := h.renderClusterTable(h.analytics.Clusters())
	if err != nil {
		h.logger.Error("render cluster table", "error", err)
		return
	}
	sse.PatchElements(html)

	jsonData, err := json.Marshal(map[string]any{
		"elbowData": h.analytics.Elbow(),
	})
	if err != nil {
		h.logger.Error("marshal elbow data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	if h.pending(sse, "segments-content", "clusters-content") {
		return
	}

	segments := h.analytics.Segments()
	html, err := h.renderSegmentTable(segments)
	if err != nil {
		h.logger.Error("render segment table", "error", err)
		return
	}
	sse.PatchElements(html)

	html, err = h.renderClusterTable(h.analytics.Clusters())
	if err != nil {
		h.logger.Error("render cluster table", "error", err)
		return
	}
	sse.PatchElements(html)

	// Send all signals in one call
	allSignals, err := json.Marshal(map[string]any{
		"segmentsData": segments,
		"elbowData":    h.analytics.Elbow(),
		"runInfo":      h.analytics.Info(),
	})
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
