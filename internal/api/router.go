// Package api exposes the write model over HTTP.
//
// Write endpoints load the aggregate they act on, run one domain operation
// and publish the resulting events in a single PublishChanges call. The
// events are then handed to the projection, if one is configured.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/sdbip/agiler-write-model/internal/domain"
	"github.com/sdbip/agiler-write-model/internal/es"
)

// Syncer receives events after they have been published.
type Syncer interface {
	Sync(ctx context.Context, events []es.EntityEvent) error
}

type Config struct {
	Publisher es.Publisher
	Reader    es.HistoryReader

	// Projection is optional.
	Projection Syncer

	// IDs generates ids for new aggregates. Defaults to UUIDv7.
	IDs domain.IDGenerator

	Log *slog.Logger

	// Metrics, when set, is served on GET /metrics.
	Metrics http.Handler

	// Health, when set, is consulted by GET /healthz.
	Health func(ctx context.Context) error

	// ServiceName names the server in HTTP spans.
	ServiceName string
}

type handler struct {
	publisher  es.Publisher
	reader     es.HistoryReader
	projection Syncer
	ids        domain.IDGenerator
	log        *slog.Logger
}

// NewRouter builds the gin engine serving all endpoints.
func NewRouter(cfg Config) *gin.Engine {
	h := &handler{
		publisher:  cfg.Publisher,
		reader:     cfg.Reader,
		projection: cfg.Projection,
		ids:        cfg.IDs,
		log:        cfg.Log,
	}
	if h.ids == nil {
		h.ids = domain.UUIDv7Generator{}
	}
	if h.log == nil {
		h.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	service := cfg.ServiceName
	if service == "" {
		service = "agiler-write-model"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(service))
	r.Use(RequestLogger(h.log))

	r.GET("/healthz", healthz(cfg.Health))
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	r.GET("/entity/:id", h.getEntity)
	r.GET("/item/:id", h.getEntity)

	w := r.Group("/", RequireActor())
	{
		w.POST("/item", h.postItem)
		w.POST("/item/:id/child", h.postItemChild)
		w.DELETE("/item/:id/child/:child", h.deleteItemChild)
		w.PATCH("/item/:id/promote", h.promoteItem)
		w.PATCH("/item/:id/complete", h.completeItem)

		w.POST("/feature", h.postFeature)
		w.POST("/feature/:id/child", h.postFeatureChild)
		w.DELETE("/feature/:id/child/:child", h.deleteFeatureChild)

		w.POST("/task", h.postTask)
		w.POST("/task/:id/child", h.postTaskChild)
		w.DELETE("/task/:id/child/:child", h.deleteTaskChild)
		w.PATCH("/task/:id/promote", h.promoteTask)
		w.PATCH("/task/:id/finish", h.finishTask)
	}
	return r
}

func healthz(check func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				respondError(c, http.StatusServiceUnavailable, "unavailable", err)
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}
