package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeUserRegistered         = "user.registered"
	EventTypeUserLoggedIn           = "user.logged_in"
	EventTypeUserLoggedOut          = "user.logged_out"
	EventTypePasswordResetRequested = "password.reset_requested"
	EventTypePermissionAssigned     = "permission.assigned"
	EventTypePermissionRemoved      = "permission.removed"
)

type UserRegisteredEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func NewUserRegisteredEvent(userID, email, role string) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserRegistered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
				"role":    role,
			},
		},
		UserID: userID,
		Email:  email,
		Role:   role,
	}
}

type UserLoggedInEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserLoggedInEvent(userID, email string) *UserLoggedInEvent {
	return &UserLoggedInEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserLoggedIn,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"email":   email,
			},
		},
		UserID: userID,
		Email:  email,
	}
}

type UserLoggedOutEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

func NewUserLoggedOutEvent(userID string) *UserLoggedOutEvent {
	return &UserLoggedOutEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUserLoggedOut,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
			},
		},
		UserID: userID,
	}
}

// PasswordResetRequestedEvent is the hook for the (external) mail sender:
// the reset token travels only through this event, never through the HTTP
// response.
type PasswordResetRequestedEvent struct {
	BaseEvent
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	ResetToken string    `json:"reset_token"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func NewPasswordResetRequestedEvent(userID, email, resetToken string, expiresAt time.Time) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePasswordResetRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":    userID,
				"email":      email,
				"expires_at": expiresAt,
			},
		},
		UserID:     userID,
		Email:      email,
		ResetToken: resetToken,
		ExpiresAt:  expiresAt,
	}
}

type PermissionChangedEvent struct {
	BaseEvent
	UserID  string `json:"user_id"`
	Module  string `json:"module"`
	Action  string `json:"action"`
	Granted bool   `json:"granted"`
}

func NewPermissionAssignedEvent(userID, module, action string, granted bool) *PermissionChangedEvent {
	return &PermissionChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"module":  module,
				"action":  action,
				"granted": granted,
			},
		},
		UserID:  userID,
		Module:  module,
		Action:  action,
		Granted: granted,
	}
}

func NewPermissionRemovedEvent(userID, module, action string) *PermissionChangedEvent {
	return &PermissionChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePermissionRemoved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id": userID,
				"module":  module,
				"action":  action,
			},
		},
		UserID: userID,
		Module: module,
		Action: action,
	}
}
