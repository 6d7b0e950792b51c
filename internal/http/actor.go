package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"printflow/internal/domain"
)

const (
	HeaderActorID         = "X-Actor-ID"
	HeaderActorName       = "X-Actor-Name"
	HeaderActorRole       = "X-Actor-Role"
	HeaderActorDepartment = "X-Actor-Department"

	actorKey = "actor"
)

// requireActor личность приходит от шлюза аутентификации в заголовках.
// Для отдельских ролей отдел по умолчанию совпадает с ролью
func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := domain.Actor{
			ID:         strings.TrimSpace(c.GetHeader(HeaderActorID)),
			Name:       strings.TrimSpace(c.GetHeader(HeaderActorName)),
			Role:       domain.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorRole)))),
			Department: domain.Department(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorDepartment)))),
		}
		if a.ID == "" || !a.Role.Valid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "actor identity required"})
			return
		}
		if a.Department == "" && domain.Department(a.Role).Valid() {
			a.Department = domain.Department(a.Role)
		}
		if a.Name == "" {
			a.Name = a.ID
		}
		c.Set(actorKey, a)
		c.Next()
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	v, _ := c.Get(actorKey)
	a, _ := v.(domain.Actor)
	return a
}
