package user

import (
	"time"
)

type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleVizazhist  Role = "VIZAZHIST"
	RoleManicurist Role = "MANICURIST"
	RoleStylist    Role = "STYLIST"
	RoleBrowist    Role = "BROWIST"
)

// Roles lists every accepted role, client first.
var Roles = []Role{RoleClient, RoleVizazhist, RoleManicurist, RoleStylist, RoleBrowist}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// IsMaster reports whether the role provides services. Every non-client role does.
func (r Role) IsMaster() bool {
	return r.Valid() && r != RoleClient
}

type User struct {
	ID           int64
	Login        string
	PasswordHash string
	FullName     string
	PhoneNumber  string
	Role         Role
	CreatedAt    time.Time
}

type Master struct {
	User
	ServicesCount int
}
