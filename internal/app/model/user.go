package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/spsports/sps-backend/pkg/util"
)

type UserRole string
type Capability string

const (
	RoleAdmin    UserRole = "admin"
	RoleCustomer UserRole = "customer"

	CapManageCatalog Capability = "manage_catalog"
	CapManageOrders  Capability = "manage_orders"
)

var roleCapabilities = map[UserRole][]Capability{
	RoleAdmin:    {CapManageCatalog, CapManageOrders},
	RoleCustomer: {},
}

func (r UserRole) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability.
func (r UserRole) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Password     string         `gorm:"-" json:"-"` // plaintext, hashed on save when set
	Role         UserRole       `gorm:"type:varchar(20);default:'admin'" json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeSave hashes a newly set password so plaintext never reaches the table.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	hash, err := util.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Password = ""
	return nil
}
