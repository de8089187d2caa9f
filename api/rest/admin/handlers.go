package admin

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/api/rest/auth"
	"codeberg.org/avksport/server/api/rest/pagination"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	authz "codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/errors"
	"codeberg.org/avksport/server/internal/logger"
)

// ListUsers godoc
// @Summary List accounts
// @Description Admin-only endpoint listing accounts newest first
// @Tags admin
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Offset"
// @Success 200 {object} UserListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/admin/users [get]
// @Security BearerAuth
func ListUsers(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		params := pagination.FromQuery(c, defaultListLimit, maxListLimit)

		list, total, err := svc.ListUsers(c.Request.Context(), params.Limit, params.Offset)
		if err != nil {
			errors.InternalError(c, "failed to list users", err)
			return
		}

		views := make([]auth.UserView, 0, len(list))
		for _, u := range list {
			views = append(views, auth.NewUserView(u))
		}

		c.JSON(http.StatusOK, UserListResponse{
			Users:      views,
			Pagination: pagination.NewMeta(params, total),
		})
	}
}

// GetUser godoc
// @Summary Get an account by ID (admin)
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} auth.UserView
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/admin/users/{id} [get]
// @Security BearerAuth
func GetUser(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.GetUser(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, "failed to get user", err)
			return
		}

		c.JSON(http.StatusOK, auth.NewUserView(user))
	}
}

// SetRole godoc
// @Summary Change an account's role
// @Description Roles are customer, staff or admin; "employee" is accepted as staff
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetRoleRequest true "New role"
// @Success 200 {object} auth.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/admin/users/{id}/role [put]
// @Security BearerAuth
func SetRole(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		actorID, _ := authz.GetUserID(c)

		user, err := svc.SetRole(c.Request.Context(), actorID, c.Param("id"), req.Role)
		if err != nil {
			writeError(c, "failed to change role", err)
			return
		}

		logger.Info("role changed", "actor_id", actorID, "user_id", user.ID, "role", user.Role)
		c.JSON(http.StatusOK, auth.NewUserView(user))
	}
}

// SetStatus godoc
// @Summary Disable or re-enable an account
// @Description Disabling ends the account's cookie sessions
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetStatusRequest true "Disabled flag"
// @Success 200 {object} auth.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/admin/users/{id}/status [put]
// @Security BearerAuth
func SetStatus(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		actorID, _ := authz.GetUserID(c)

		user, err := svc.SetDisabled(c.Request.Context(), actorID, c.Param("id"), *req.Disabled)
		if err != nil {
			writeError(c, "failed to change account status", err)
			return
		}

		logger.Info("account status changed", "actor_id", actorID, "user_id", user.ID, "disabled", user.Disabled())
		c.JSON(http.StatusOK, auth.NewUserView(user))
	}
}

// DeleteUser godoc
// @Summary Delete an account
// @Tags admin
// @Param id path string true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/admin/users/{id} [delete]
// @Security BearerAuth
func DeleteUser(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, _ := authz.GetUserID(c)
		userID := c.Param("id")

		if err := svc.DeleteUser(c.Request.Context(), actorID, userID); err != nil {
			writeError(c, "failed to delete user", err)
			return
		}

		logger.Info("account deleted", "actor_id", actorID, "user_id", userID)
		c.Status(http.StatusNoContent)
	}
}

func writeError(c *gin.Context, message string, err error) {
	switch {
	case stderrors.Is(err, users.ErrUserNotFound):
		errors.NotFound(c, "user")
	case accounts.IsInputError(err):
		errors.BadRequest(c, err.Error(), nil)
	default:
		errors.InternalError(c, message, err)
	}
}
