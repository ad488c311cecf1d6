// Package internal holds the dependencies shared by every handler
package internal

import (
	"github.com/dancarlton/rinsed/internal/service"
	"github.com/dancarlton/rinsed/internal/store"
	"github.com/dancarlton/rinsed/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB     *gorm.DB
	Users  *store.UserStore
	Hasher security.Hasher
	Mailer service.Mailer

	// nil when storage.enabled is off
	Avatars *service.AvatarService
}
