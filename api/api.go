// Package api exposes a minimal HTTP surface over an engine: a health check
// and a message endpoint per component. It is an optional embedding aid;
// the runtime works without it.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/roach88/flexiflow/engine"
	"github.com/roach88/flexiflow/state"
)

// NewRouter builds the HTTP router for an engine.
func NewRouter(eng *engine.Engine) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/components/:name/message", func(c *gin.Context) {
		name := c.Param("name")
		comp, ok := eng.Get(name)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "component not found"})
			return
		}

		var msg state.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message body"})
			return
		}

		accepted, err := comp.HandleMessage(c.Request.Context(), msg)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "sent", "accepted": accepted})
	})

	return router
}
