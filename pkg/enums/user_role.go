package enums

import "fmt"

// UserRole is the closed set of marketplace actor roles.
type UserRole string

const (
	UserRoleCustomer  UserRole = "customer"
	UserRoleShopOwner UserRole = "shop_owner"
	UserRoleSupplier  UserRole = "supplier"
	UserRoleMarketer  UserRole = "marketer"
	UserRoleCourier   UserRole = "courier"
	UserRolePlatform  UserRole = "platform"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleShopOwner,
	UserRoleSupplier,
	UserRoleMarketer,
	UserRoleCourier,
	UserRolePlatform,
}

// IsValid reports whether the value matches the canonical role enum.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
