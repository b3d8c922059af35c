package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type joinWaitlistRequest struct {
	Email string `json:"email" binding:"required"`
}

func (a *api) joinWaitlist(c *gin.Context) {
	var req joinWaitlistRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := a.deps.WaitlistSvc.Join(c.Request.Context(), req.Email)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	status := http.StatusCreated
	if res.AlreadyJoined {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

func (a *api) waitlistCount(c *gin.Context) {
	n, err := a.deps.WaitlistSvc.Count(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}
