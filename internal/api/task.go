package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sdbip/agiler-write-model/internal/domain"
)

func (h *handler) loadTask(c *gin.Context, id string) (*domain.Task, bool) {
	return load(h, c, domain.TaskTypeCode, id, domain.ReconstituteTask)
}

func (h *handler) postTask(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	task, err := domain.NewTask(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, task) {
		created(c, task.ID().ID())
	}
}

func (h *handler) postTaskChild(c *gin.Context) {
	req, ok := bindCreate(c)
	if !ok {
		return
	}
	parent, ok := h.loadTask(c, c.Param("id"))
	if !ok {
		return
	}
	child, err := domain.NewTask(h.ids.Generate(), req.Title, domain.ItemType(req.Type))
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

func (h *handler) deleteTaskChild(c *gin.Context) {
	parent, ok := h.loadTask(c, c.Param("id"))
	if !ok {
		return
	}
	child, ok := h.loadTask(c, c.Param("child"))
	if !ok {
		return
	}
	parent.Remove(child)
	if h.publish(c, parent, child) {
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) promoteTask(c *gin.Context) {
	task, ok := h.loadTask(c, c.Param("id"))
	if !ok {
		return
	}
	if err := task.Promote(); err != nil {
		h.fail(c, err)
		return
	}
	if h.publish(c, task) {
		c.Status(http.StatusNoContent)
	}
}

func (h *handler) finishTask(c *gin.Context) {
	task, ok := h.loadTask(c, c.Param("id"))
	if !ok {
		return
	}
	task.Finish()
	if h.publish(c, task) {
		c.Status(http.StatusNoContent)
	}
}
