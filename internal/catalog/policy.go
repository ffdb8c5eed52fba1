package catalog

import "storefront/internal/models"

// EditScope is the outcome of the access policy for one user and product.
type EditScope int

const (
	ScopeDenied EditScope = iota
	ScopeFull
	ScopeModeratorLimited
)

func (s EditScope) String() string {
	switch s {
	case ScopeFull:
		return "full"
	case ScopeModeratorLimited:
		return "moderator"
	default:
		return "denied"
	}
}

// Editable product fields.
const (
	FieldName        = "name"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldImage       = "image"
	FieldPrice       = "price"
	FieldIsActive    = "is_active"
)

var (
	fullFields      = []string{FieldName, FieldCategory, FieldDescription, FieldImage, FieldPrice, FieldIsActive}
	moderatorFields = []string{FieldCategory, FieldDescription, FieldIsActive}
)

// AllowedFields lists the product fields the scope may change.
func (s EditScope) AllowedFields() []string {
	switch s {
	case ScopeFull:
		return append([]string(nil), fullFields...)
	case ScopeModeratorLimited:
		return append([]string(nil), moderatorFields...)
	default:
		return nil
	}
}

// Allows reports whether field is editable under the scope.
func (s EditScope) Allows(field string) bool {
	for _, f := range s.AllowedFields() {
		if f == field {
			return true
		}
	}
	return false
}

// ResolveEditRights checks ownership first; a non-owner needs all moderator
// capabilities, not any of them. It must be called on every edit with a
// freshly loaded user.
func ResolveEditRights(user *models.User, product *models.Product) EditScope {
	if user == nil || product == nil {
		return ScopeDenied
	}
	if product.OwnedBy(user) {
		return ScopeFull
	}
	if user.HasPerms(models.ModeratorPermissions...) {
		return ScopeModeratorLimited
	}
	return ScopeDenied
}
