package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cadgen/internal/app"
	"cadgen/internal/model"
)

const ContextSessionKey = "session"

// Session resolves the browser session from its cookie and stores it in the context.
// Handlers that change the state save it themselves.
func Session(sessions *app.SessionService, cookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		state, newToken, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Error("resolve session failed", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if newToken != token {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, newToken, int(sessions.TTL().Seconds()), "/", "", false, true)
		}
		c.Set(ContextSessionKey, state)
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (*model.SessionState, bool) {
	v, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	state, ok := v.(*model.SessionState)
	return state, ok
}
