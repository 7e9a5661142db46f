package http

import (
	"io"
	"net/http"
	"time"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 25 * time.Second

type LogHandler struct {
	logService ports.LogService
	heartbeat  time.Duration
}

func NewLogHandler(logService ports.LogService) *LogHandler {
	return &LogHandler{
		logService: logService,
		heartbeat:  defaultHeartbeat,
	}
}

func (h *LogHandler) SetupRoutes(public, examiner *gin.RouterGroup) {
	public.POST("/rooms/:roomId/logs", h.AppendLog)

	examiner.GET("/rooms/:roomId/logs", h.GetLogs)
	examiner.GET("/rooms/:roomId/logs/stream", h.StreamLogs)
}

type AppendLogRequest struct {
	RollNumber string `json:"rollNumber"`
	LogMessage string `json:"logMessage"`
	Status     string `json:"status"`
}

func (h *LogHandler) AppendLog(c *gin.Context) {
	var req AppendLogRequest
	// every field is optional, an empty or malformed body records the defaults
	_ = c.ShouldBindJSON(&req)

	h.logService.AppendLog(c.Request.Context(), domain.RoomID(c.Param("roomId")), req.RollNumber, req.LogMessage, req.Status)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Log entry added successfully.",
	})
}

func (h *LogHandler) GetLogs(c *gin.Context) {
	c.JSON(http.StatusOK, h.logService.GetLogs(domain.RoomID(c.Param("roomId"))))
}

// StreamLogs pushes entries appended after the call as SSE data frames until
// the client disconnects. Comment frames keep idle proxies from closing it.
// The stream is not bound by server.write_timeout.
func (h *LogHandler) StreamLogs(c *gin.Context) {
	sub := h.logService.Subscribe(domain.RoomID(c.Param("roomId")))
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	// lift the server write timeout for this response only; recorders in
	// tests report ErrNotSupported, which is fine to ignore
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case entry, ok := <-sub.C():
			if !ok {
				return false
			}
			if err := sse.Encode(w, sse.Event{Data: entry}); err != nil {
				return false
			}
			return true
		case <-heartbeat.C:
			_, err := io.WriteString(w, ": ping\n\n")
			return err == nil
		}
	})
}
