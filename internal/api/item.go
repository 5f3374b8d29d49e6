package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdbip/agiler-write-model/internal/domain"
)

func (h *handler) loadItem(c *gin.Context, id string) (*domain.Item, bool) {
	return load(h, c, domain.ItemTypeCode, id, domain.ReconstituteItem)
}

func (h *handler) postItem(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	item, err := domain.NewItem(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, item) {
		created(c, item.ID().ID())
	}
}

func (h *handler) postItemChild(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	parent, ok := h.loadItem(c, c.Param("id"))
	if !ok {
		return
	}
	child, err := domain.NewItem(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := parent.Add(child); err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, parent, child) {
		created(c, child.ID().ID())
	}
}

func (h *handler) deleteItemChild(c *gin.Context) {
	parent, ok := h.loadItem(c, c.Param("id"))
	if !ok {
		return
	}
	child, ok := h.loadItem(c, c.Param("child"))
	if !ok {
		return
	}
	parent.Remove(child)
	if h.publish(c, parent, child) {
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) promoteItem(c *gin.Context) {
	item, ok := h.loadItem(c, c.Param("id"))
	if !ok {
		return
	}
	if err := item.Promote(); err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, item) {
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) completeItem(c *gin.Context) {
	item, ok := h.loadItem(c, c.Param("id"))
	if !ok {
		return
	}
	if err := item.Complete(); err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, item) {
		c.Status(http.StatusNoContent)
	}
}
