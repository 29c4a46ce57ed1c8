package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/case-tracker/internal/domain/entity"
)

const (
	// HeaderUserID carries the caller's user id
	HeaderUserID = "X-User-ID"
	// HeaderUsername carries the caller's display name
	HeaderUsername = "X-Username"

	actorKey = "actor"
)

// identityMiddleware reads the caller identity headers into the request context
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, entity.Actor{
			UserID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
			Username: strings.TrimSpace(c.GetHeader(HeaderUsername)),
		})
		c.Next()
	}
}

func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
