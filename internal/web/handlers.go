package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ilkoid/poncho-travel/internal/agent"
	"github.com/ilkoid/poncho-travel/internal/trip"
	"github.com/ilkoid/poncho-travel/pkg/events"
	"github.com/ilkoid/poncho-travel/pkg/utils"
)

// pageData — данные шаблона index.html.
type pageData struct {
	Model       string
	ConfigError string

	Destination string
	Days        int
	MinDays     int
	MaxDays     int

	Notice    string
	Statuses  []string
	Itinerary string
}

func (h *handler) newPage() pageData {
	p := pageData{
		Model:   h.deps.Model,
		Days:    trip.DefaultDays,
		MinDays: trip.MinDays,
		MaxDays: trip.MaxDays,
	}
	if h.deps.ConfigErr != nil {
		p.ConfigError = h.deps.ConfigErr.Error()
	}
	return p
}

// requireConfig отвечает 503 в заблокированном режиме.
func (h *handler) requireConfig(html bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.deps.ConfigErr == nil {
			c.Next()
			return
		}
		if html {
			c.HTML(http.StatusServiceUnavailable, "index.html", h.newPage())
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":      h.deps.ConfigErr.Error(),
				"request_id": GetRequestID(c),
			})
		}
		c.Abort()
	}
}

func (h *handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", h.newPage())
}

func (h *handler) planForm(c *gin.Context) {
	page := h.newPage()
	page.Destination = strings.TrimSpace(c.PostForm("destination"))

	days, err := trip.ParseDays(c.PostForm("days"))
	if err != nil {
		page.Notice = err.Error()
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}
	page.Days = days

	if !trip.CanSubmit(page.Destination) {
		page.Notice = "Please enter a destination."
		c.HTML(http.StatusBadRequest, "index.html", page)
		return
	}

	out, err := h.deps.Planner.Plan(c.Request.Context(), page.Destination, days)
	if err != nil {
		page.Notice = err.Error()
		c.HTML(statusFor(err), "index.html", page)
		return
	}

	if out.Research != nil {
		page.Statuses = append(page.Statuses, agent.MsgResearchDone)
	}
	if out.OK() {
		page.Itinerary = out.Itinerary.Content
	} else {
		page.Notice = out.Notice()
	}
	c.HTML(http.StatusOK, "index.html", page)
}

// planRequest — тело POST /api/plan.
type planRequest struct {
	Destination string `json:"destination" form:"destination" binding:"required"`
	Days        int    `json:"days" form:"days" binding:"omitempty,min=1,max=30"`
}

// planResponse — ответ API и финальное SSE событие.
type planResponse struct {
	Itinerary         string `json:"itinerary,omitempty"`
	ResearchCompleted bool   `json:"research_completed"`
	Error             string `json:"error,omitempty"`
	Stage             string `json:"stage,omitempty"`
	RequestID         string `json:"request_id"`
}

func newPlanResponse(out agent.Outcome, requestID string) planResponse {
	resp := planResponse{
		ResearchCompleted: out.Research != nil,
		RequestID:         requestID,
	}
	if out.Itinerary != nil {
		resp.Itinerary = out.Itinerary.Content
	}
	if out.Failure != nil {
		resp.Error = out.Notice()
		resp.Stage = string(out.Failure.Stage)
	}
	return resp
}

func (h *handler) planJSON(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "request_id": GetRequestID(c)})
		return
	}
	if req.Days == 0 {
		req.Days = trip.DefaultDays
	}

	out, err := h.deps.Planner.Plan(c.Request.Context(), req.Destination, req.Days)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}

	status := http.StatusOK
	if !out.OK() {
		status = http.StatusBadGateway
	}
	c.JSON(status, newPlanResponse(out, GetRequestID(c)))
}

// planStream — SSE: события прогресса, затем "result" с planResponse.
func (h *handler) planStream(c *gin.Context) {
	destination := c.Query("destination")
	days, err := trip.ParseDays(c.Query("days"))
	if err == nil && !trip.CanSubmit(destination) {
		err = &trip.ValidationError{Field: "destination", Message: "must not be empty"}
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}

	requestID := GetRequestID(c)
	emitter := events.NewChanEmitter(16)
	ctx := events.WithEmitter(c.Request.Context(), emitter)

	resultCh := make(chan planResponse, 1)
	go func() {
		defer emitter.Close()
		out, err := h.deps.Planner.Plan(ctx, destination, days)
		if err != nil {
			resultCh <- planResponse{Error: err.Error(), RequestID: requestID}
			return
		}
		resultCh <- newPlanResponse(out, requestID)
	}()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	stream := emitter.Subscribe().Events()
	for {
		select {
		case ev, ok := <-stream:
			if !ok {
				c.SSEvent("result", <-resultCh)
				c.Writer.Flush()
				return
			}
			c.SSEvent(string(ev.Type), eventPayload(ev))
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			utils.Warn("SSE client disconnected", "request_id", requestID)
			return
		}
	}
}

// eventPayload — JSON-представление события для SSE.
func eventPayload(ev events.Event) map[string]any {
	payload := map[string]any{"timestamp": ev.Timestamp}

	switch data := ev.Data.(type) {
	case events.StageData:
		payload["stage"] = data.Stage
		payload["message"] = data.Message
		if data.Duration > 0 {
			payload["duration_ms"] = data.Duration.Milliseconds()
		}
		if data.Err != nil {
			payload["error"] = data.Err.Error()
		}
	case events.ToolCallData:
		payload["agent"] = data.Agent
		payload["tool"] = data.ToolName
		payload["args"] = json.RawMessage(safeJSON(data.Args))
	case events.ToolResultData:
		payload["agent"] = data.Agent
		payload["tool"] = data.ToolName
		payload["duration_ms"] = data.Duration.Milliseconds()
		payload["success"] = data.Err == nil
		if data.Err != nil {
			payload["error"] = data.Err.Error()
		}
	case events.DoneData:
		payload["ok"] = data.OK
		payload["duration_ms"] = data.Duration.Milliseconds()
		if data.Notice != "" {
			payload["notice"] = data.Notice
		}
	}
	return payload
}

func safeJSON(s string) string {
	if json.Valid([]byte(s)) {
		return s
	}
	quoted, _ := json.Marshal(s)
	return string(quoted)
}

// pdfRequest — тело POST /api/itinerary.pdf.
type pdfRequest struct {
	Destination string `json:"destination" form:"destination"`
	Days        int    `json:"days" form:"days" binding:"omitempty,min=1,max=30"`
	Itinerary   string `json:"itinerary" form:"itinerary" binding:"required"`
}

func (h *handler) itineraryPDF(c *gin.Context) {
	var req pdfRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "request_id": GetRequestID(c)})
		return
	}
	if req.Days == 0 {
		req.Days = trip.DefaultDays
	}

	data, err := RenderItineraryPDF(strings.TrimSpace(req.Destination), req.Days, req.Itinerary, h.deps.Now())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": GetRequestID(c)})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, pdfFilename(req.Destination)))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *handler) health(c *gin.Context) {
	body := gin.H{
		"status":          "ok",
		"model":           h.deps.Model,
		"search_provider": h.deps.SearchProvider,
	}
	if h.deps.ConfigErr != nil {
		body["status"] = "blocked"
		body["error"] = h.deps.ConfigErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

// statusFor — HTTP статус для ошибки Plan.
func statusFor(err error) int {
	var verr *trip.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusServiceUnavailable
}

