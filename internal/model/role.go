package model

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
)

var Roles = []Role{RoleAdmin, RoleUser, RoleProvider}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}

	return false
}
