package enums

// Role is the actor role supplied by the identity provider.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}
