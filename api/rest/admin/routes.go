package admin

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
)

func RegisterRoutes(router *gin.RouterGroup, svc *accounts.Service, gate *auth.Gate) {
	admin := router.Group("/admin")
	admin.Use(gate.RequireAuth(users.RoleAdmin))

	admin.GET("/users", ListUsers(svc))
	admin.GET("/users/:id", GetUser(svc))
	admin.PUT("/users/:id/role", SetRole(svc))
	admin.PUT("/users/:id/status", SetStatus(svc))
	admin.DELETE("/users/:id", DeleteUser(svc))
}
