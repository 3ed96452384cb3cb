// Package rbac maps back-office roles to the feature areas and actions they
// may use. The same table drives menu rendering and route guarding, so the
// two can never disagree.
package rbac

import "fmt"

// Role is a back-office user role as issued in the custom:userRole claim
type Role string

const (
	RoleOwner          Role = "Owner"
	RoleHeadOwner      Role = "Head Owner"
	RoleHeadAccountant Role = "Head Accountant"
	RoleAccountant     Role = "Accountant"
	RoleAgent          Role = "Agent"
	RoleCarrier        Role = "Carrier"
)

// Roles lists every known role
var Roles = []Role{
	RoleOwner,
	RoleHeadOwner,
	RoleHeadAccountant,
	RoleAccountant,
	RoleAgent,
	RoleCarrier,
}

// Feature is a navigable feature area
type Feature string

const (
	FeatureUsers    Feature = "users"
	FeatureBranches Feature = "branches"
	FeatureLoads    Feature = "loads"
)

// Features lists every feature area in menu order
var Features = []Feature{FeatureUsers, FeatureBranches, FeatureLoads}

// Action is a CRUD action on an entity
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ParseRole converts a claim value to a Role
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Label returns the human readable role name
func (r Role) Label() string {
	return string(r)
}

// AccessibleFeatures returns the feature areas a role may open.
// Unknown roles get none.
func AccessibleFeatures(role Role) []Feature {
	switch role {
	case RoleHeadOwner, RoleHeadAccountant:
		return []Feature{FeatureUsers, FeatureBranches, FeatureLoads}
	case RoleOwner:
		return []Feature{FeatureUsers, FeatureLoads}
	case RoleAccountant, RoleAgent, RoleCarrier:
		return []Feature{FeatureLoads}
	default:
		return nil
	}
}

// HasAccess reports whether role may open feature
func HasAccess(role Role, feature Feature) bool {
	for _, f := range AccessibleFeatures(role) {
		if f == feature {
			return true
		}
	}
	return false
}

// HasLoadPermission reports whether role may perform action on loads
func HasLoadPermission(role Role, action Action) bool {
	switch role {
	case RoleHeadOwner, RoleHeadAccountant, RoleOwner:
		return true
	case RoleAccountant:
		return action != ActionDelete
	case RoleAgent:
		// reviews loads posted by carriers
		return action == ActionRead || action == ActionUpdate
	case RoleCarrier:
		return action == ActionCreate || action == ActionRead || action == ActionUpdate
	default:
		return false
	}
}

// HasUserPermission reports whether role may perform action on users
func HasUserPermission(role Role, action Action) bool {
	switch role {
	case RoleHeadOwner, RoleHeadAccountant, RoleOwner:
		return true
	default:
		return false
	}
}

// HasBranchPermission reports whether role may perform action on branches
func HasBranchPermission(role Role, action Action) bool {
	switch role {
	case RoleHeadOwner, RoleHeadAccountant:
		return true
	default:
		return false
	}
}
