package admin

import (
	"codeberg.org/avksport/server/api/rest/auth"
	"codeberg.org/avksport/server/api/rest/pagination"
)

type UserListResponse struct {
	Users      []auth.UserView `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

type SetRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type SetStatusRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)
