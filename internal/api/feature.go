package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdbip/agiler-write-model/internal/domain"
)

func (h *handler) loadFeature(c *gin.Context, id string) (*domain.Feature, bool) {
	return load(h, c, domain.FeatureTypeCode, id, domain.ReconstituteFeature)
}

func (h *handler) postFeature(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	feature, err := domain.NewFeature(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, feature) {
		created(c, feature.ID().ID())
	}
}

func (h *handler) postFeatureChild(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	parent, ok := h.loadFeature(c, c.Param("id"))
	if !ok {
		return
	}
	child, err := domain.NewFeature(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
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

func (h *handler) deleteFeatureChild(c *gin.Context) {
	parent, ok := h.loadFeature(c, c.Param("id"))
	if !ok {
		return
	}
	child, ok := h.loadFeature(c, c.Param("child"))
	if !ok {
		return
	}
	parent.Remove(child)
	if h.publish(c, parent, child) {
		c.Status(http.StatusNoContent)
	}
}
