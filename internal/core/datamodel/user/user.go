package user

import "time"

// User is the credential store row. Refresh-token fields are nullable as a
// group: all three set means an active session, all three null means none.
type User struct {
	ID             string `gorm:"primaryKey"`
	Email          string `gorm:"column:email;uniqueIndex;not null"`
	EmployeeNumber *string `gorm:"column:employee_number;uniqueIndex"`
	FullName       string `gorm:"column:full_name;not null"`
	PasswordHash   string `gorm:"column:password_hash;not null"`
	Role           string `gorm:"column:role;not null;default:viewer"`
	IsActive       bool   `gorm:"column:is_active;default:true"`

	LastLogin *time.Time `gorm:"column:last_login"`

	ResetToken       *string    `gorm:"column:reset_token"`
	ResetTokenExpiry *time.Time `gorm:"column:reset_token_expiry"`

	RefreshTokenHash      *string    `gorm:"column:refresh_token_hash"`
	RefreshTokenCreatedAt *time.Time `gorm:"column:refresh_token_created_at"`
	RefreshTokenExpiry    *time.Time `gorm:"column:refresh_token_expiry"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
