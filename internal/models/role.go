package models

// Role is the actor role resolved by the authentication service.
type Role string

const (
	RoleCustomer   Role = "Customer"
	RoleRestaurant Role = "Restaurant"
	RoleNGO        Role = "NGO"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurant, RoleNGO:
		return true
	}
	return false
}
