package enums

import "fmt"

// UserRole identifies the portal role attached to an authenticated account.
type UserRole string

const (
	UserRoleFarmer          UserRole = "farmer"
	UserRoleVeterinarian    UserRole = "veterinarian"
	UserRoleAgrovetSupplier UserRole = "agrovet_supplier"
	UserRoleCountyStaff     UserRole = "county_staff"
)

var validUserRoles = []UserRole{
	UserRoleFarmer,
	UserRoleVeterinarian,
	UserRoleAgrovetSupplier,
	UserRoleCountyStaff,
}

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if r == candidate {
			return true
		}
	}
	return false
}

// CanBuy reports whether the role may hold a cart and place orders.
func (r UserRole) CanBuy() bool {
	return r == UserRoleFarmer || r == UserRoleVeterinarian
}

// CanSell reports whether the role may manage supplier-side orders.
func (r UserRole) CanSell() bool {
	return r == UserRoleAgrovetSupplier
}

// ParseUserRole converts raw input into a validated UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
