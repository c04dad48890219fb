package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hostpulse/agent/internal/config"
	"github.com/hostpulse/agent/internal/domain"
	"github.com/hostpulse/agent/internal/impls"
	"github.com/hostpulse/agent/internal/usecase/monitor"
)

type response struct {
	Ok    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type usageResponse struct {
	Latest           *domain.UsageSample `json:"latest"`
	SinceBootPercent float64             `json:"since_boot_percent"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// LiveSource provides a live sample subscription for the websocket stream.
type LiveSource interface {
	Subscribe() (<-chan domain.UsageSample, func())
}

type API struct {
	monitor   *monitor.Monitor
	inspector impls.HostInspector
	live      LiveSource
	logger    *zap.Logger
}

func NewAPI(mon *monitor.Monitor, inspector impls.HostInspector, live LiveSource, logger *zap.Logger) *API {
	return &API{monitor: mon, inspector: inspector, live: live, logger: logger}
}

func (a *API) RegisterRoutes(router *gin.Engine, secret string) {
	router.GET("/healthz", a.health)

	v1 := router.Group("/v1", authMiddleware(secret))
	v1.GET("/cpu", a.cpuInfo)
	v1.GET("/usage", a.usage)
	v1.GET("/usage/history", a.usageHistory)
	v1.GET("/usage/live", a.usageLive)
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, response{Ok: true, Data: healthResponse{
		Status:  "ok",
		Version: config.Version,
	}})
}

func (a *API) cpuInfo(c *gin.Context) {
	info, err := a.inspector.Inspect()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, response{Ok: false, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response{Ok: true, Data: info})
}

func (a *API) usage(c *gin.Context) {
	data := usageResponse{}
	if latest, ok := a.monitor.Latest(); ok {
		data.Latest = &latest
	}
	if sinceBoot, err := a.monitor.SinceBoot(); err == nil {
		data.SinceBootPercent = sinceBoot
	}
	c.JSON(http.StatusOK, response{Ok: true, Data: data})
}

func (a *API) usageHistory(c *gin.Context) {
	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response{Ok: false, Error: "since must be RFC3339"})
			return
		}
		since = parsed
	}
	c.JSON(http.StatusOK, response{Ok: true, Data: a.monitor.History(since)})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is already guarded by the secret header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// usageLive streams samples over a websocket as they are collected. Slow
// clients miss samples instead of backing up the pipeline.
func (a *API) usageLive(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	samples, cancel := a.live.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			if err := conn.WriteJSON(sample); err != nil {
				return
			}
		}
	}
}
