package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdbip/agiler-write-model/internal/es"
)

type createRequest struct {
	Title string `json:"title" binding:"required"`
	Type  string `json:"type"`
}

func bindCreate(c *gin.Context) (createRequest, bool) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, CodeInvalid, err)
		return req, false
	}
	return req, true
}

type rebuildFunc[T es.Entity] func(id string, version es.EntityVersion, events []es.PublishedEvent) (T, error)

// load reads the history of id as an entity of typeCode and rebuilds the
// aggregate. It writes the error response itself and reports false when
// the handler should stop.
func load[T es.Entity](h *handler, c *gin.Context, typeCode, id string, rebuild rebuildFunc[T]) (T, bool) {
	var zero T
	cid, err := es.NewCanonicalEntityID(id, typeCode)
	if err != nil {
		h.fail(c, err)
		return zero, false
	}
	history, found, err := h.reader.HistoryFor(c.Request.Context(), cid)
	if err != nil {
		h.fail(c, err)
		return zero, false
	}
	if !found {
		respondNotFound(c, id)
		return zero, false
	}
	entity, err := rebuild(id, history.Version, history.Events)
	if err != nil {
		// Stored history that no longer rebuilds is our fault, not the caller's.
		h.internalError(c, err)
		return zero, false
	}
	return entity, true
}

// publish appends the queued events of entities and forwards them to the
// projection. A projection failure is logged; the events are durable
// regardless and Rebuild can catch the table up.
func (h *handler) publish(c *gin.Context, entities ...es.Entity) bool {
	ctx := c.Request.Context()
	events := es.EventsOf(entities...)
	if err := h.publisher.PublishChanges(ctx, actorOf(c), entities...); err != nil {
		h.fail(c, err)
		return false
	}
	if h.projection != nil && len(events) > 0 {
		if err := h.projection.Sync(ctx, events); err != nil {
			h.log.WarnContext(ctx, "projection sync failed", "events", len(events), "error", err)
		}
	}
	return true
}

func (h *handler) getEntity(c *gin.Context) {
	id := c.Param("id")
	history, found, err := h.reader.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !found {
		respondNotFound(c, id)
		return
	}
	if history.Events == nil {
		history.Events = []es.PublishedEvent{}
	}
	c.JSON(http.StatusOK, history)
}

func created(c *gin.Context, id string) {
	c.JSON(http.StatusCreated, IDResponse{ID: id})
}
