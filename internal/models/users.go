package models

import "golang.org/x/crypto/bcrypt"

// Capability codenames gating moderator edits of products.
const (
	PermEditCategory    = "can_edit_category"
	PermEditDescription = "can_edit_description"
	PermEditIsActive    = "can_edit_is_active"
)

// ModeratorPermissions is the full set a non-owner needs for a limited product edit.
var ModeratorPermissions = []string{PermEditCategory, PermEditDescription, PermEditIsActive}

// Permission is a grantable capability, identified by its codename.
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Codename string `gorm:"size:100;uniqueIndex;not null" json:"codename"`
	Name     string `gorm:"size:255" json:"name"`
}

// User logs in by email; there is no username.
type User struct {
	Base
	Email        string       `gorm:"size:254;uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	Phone        string       `gorm:"size:35" json:"phone,omitempty"`
	Avatar       string       `gorm:"size:255" json:"avatar,omitempty"`
	Country      string       `gorm:"size:70" json:"country,omitempty"`
	Token        *string      `gorm:"size:100;index" json:"-"`
	IsActive     bool         `gorm:"not null" json:"is_active"`
	IsStaff      bool         `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool         `gorm:"not null" json:"is_superuser"`
	Permissions  []Permission `gorm:"many2many:user_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
}

// HasPerm reports whether the user holds the capability. Inactive users hold
// nothing, active superusers hold everything.
func (u *User) HasPerm(codename string) bool {
	if u == nil || !u.IsActive {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, p := range u.Permissions {
		if p.Codename == codename {
			return true
		}
	}
	return false
}

// HasPerms reports whether the user holds every listed capability.
func (u *User) HasPerms(codenames ...string) bool {
	for _, c := range codenames {
		if !u.HasPerm(c) {
			return false
		}
	}
	return true
}

// HashPassword turns a plain password into a bcrypt hash.
func HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(hash), err
}

// CheckPassword compares a plain password with its hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
