package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contactMessage struct {
	Name    string `json:"name" form:"name"`
	Phone   string `json:"phone" form:"phone"`
	Message string `json:"message" form:"message"`
}

// contact records a feedback message in the log.
func (s *server) contact(c *gin.Context) {
	var msg contactMessage
	if err := c.ShouldBind(&msg); err != nil {
		badRequest(c, "body", err.Error(), nil)
		return
	}
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" {
		badRequest(c, "name", "is required", msg)
		return
	}
	if msg.Message == "" {
		badRequest(c, "message", "is required", msg)
		return
	}
	s.Log.Info().
		Str("request_id", c.GetString(ctxRequestID)).
		Uint("user_id", currentUser(c).ID).
		Str("name", msg.Name).
		Str("phone", msg.Phone).
		Str("message", msg.Message).
		Msg("contact message received")
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}
