// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the caller as resolved by TenantRequired.
// Handlers use it instead of reading gin keys directly.
type Identity interface {
	// TenantID returns the organization the request is scoped to.
	TenantID() uuid.UUID
	// UserID returns the acting user, if the gateway supplied one.
	UserID() *uuid.UUID
}

type identity struct {
	tenantID uuid.UUID
	userID   *uuid.UUID
}

func (i *identity) TenantID() uuid.UUID { return i.tenantID }
func (i *identity) UserID() *uuid.UUID  { return i.userID }

// GetIdentity extracts the Identity from a Gin context.
// The tenant is uuid.Nil when TenantRequired did not run.
func GetIdentity(c *gin.Context) Identity {
	id := &identity{}
	if v, ok := c.Get(ContextTenantIDKey); ok {
		if tenantID, ok := v.(uuid.UUID); ok {
			id.tenantID = tenantID
		}
	}
	if v, ok := c.Get(ContextUserIDKey); ok {
		if userID, ok := v.(uuid.UUID); ok {
			id.userID = &userID
		}
	}
	return id
}
