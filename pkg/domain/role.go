package domain

// Role names the permission tier of a dashboard account.
type Role struct {
	ID       string
	Name     string
	HexColor string
}

// Role identifiers.
const (
	RoleAdmin     = "admin"
	RolePartner   = "partner"
	RoleAffiliate = "affiliate"
)

// Roles are the tiers the backend assigns.
var Roles = map[string]Role{
	RoleAdmin:     {ID: RoleAdmin, Name: "Admin", HexColor: "#E67E22"},
	RolePartner:   {ID: RolePartner, Name: "Partner", HexColor: "#3498DB"},
	RoleAffiliate: {ID: RoleAffiliate, Name: "Affiliate", HexColor: "#2ECC71"},
}

// ValidRole returns true if the given ID is a known role.
func ValidRole(id string) bool {
	_, ok := Roles[id]
	return ok
}
