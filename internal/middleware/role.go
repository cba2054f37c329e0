package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/simsmaster/sims-backend/internal/model"
	"github.com/simsmaster/sims-backend/internal/response"
	"github.com/simsmaster/sims-backend/internal/service"
)

// ContextKeyRole is the Gin context key for the caller's resolved role.
const ContextKeyRole = "role"

// RoleResolver reads the role an account currently holds.
type RoleResolver interface {
	CurrentRole(ctx context.Context, email string) (model.Role, error)
}

// RequireRole admits callers whose current role is one of roles. It must run
// after RequireJWT. Roles are read per request so a demotion takes effect
// before the token expires.
func RequireRole(resolver RoleResolver, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		role, err := resolver.CurrentRole(c.Request.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		if !slices.ContainsFunc(roles, role.Is) {
			response.AbortFail(c, http.StatusForbidden, response.ErrRoleForbidden)
			return
		}

		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// ResolveRole stores the caller's current role without restricting access,
// for handlers that treat admins differently.
func ResolveRole(resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		role, err := resolver.CurrentRole(c.Request.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeyRole, role)
		c.Next()
	}
}

// GetRole returns the role stored by RequireRole or ResolveRole.
func GetRole(c *gin.Context) model.Role {
	val, _ := c.Get(ContextKeyRole)
	role, _ := val.(model.Role)
	return role
}

// IsSelfOrAdmin reports whether the caller owns email or is an admin.
func IsSelfOrAdmin(c *gin.Context, email string) bool {
	claims := GetClaims(c)
	if claims == nil {
		return false
	}
	return claims.Email == email || GetRole(c).Is(model.RoleAdmin)
}
