package rbac

// LoginPath is where a role that can open no feature is sent
const LoginPath = "/login"

// MenuItem is a sidebar navigation entry
type MenuItem struct {
	Feature Feature
	Path    string
	Label   string
}

var menuItems = []MenuItem{
	{Feature: FeatureUsers, Path: "/", Label: "Users"},
	{Feature: FeatureBranches, Path: "/branches", Label: "Branches"},
	{Feature: FeatureLoads, Path: "/loads", Label: "Loads"},
}

// Menu returns the navigation entries visible to role
func Menu(role Role) []MenuItem {
	items := make([]MenuItem, 0, len(menuItems))
	for _, item := range menuItems {
		if HasAccess(role, item.Feature) {
			items = append(items, item)
		}
	}
	return items
}

// Decision is the outcome of a route guard check
type Decision struct {
	Allowed  bool
	Redirect string
}

// Landing returns the first menu path role may open
func Landing(role Role) (string, bool) {
	items := Menu(role)
	if len(items) == 0 {
		return "", false
	}
	return items[0].Path, true
}

// Guard decides whether a page gated on feature renders for role. A denied
// page redirects to the role's landing page, which the role can always
// open, so following a redirect never loops.
func Guard(role Role, feature Feature) Decision {
	if HasAccess(role, feature) {
		return Decision{Allowed: true}
	}
	if path, ok := Landing(role); ok {
		return Decision{Redirect: path}
	}
	return Decision{Redirect: LoginPath}
}

// FeatureForPath returns the feature gating a route path
func FeatureForPath(path string) (Feature, bool) {
	for _, item := range menuItems {
		if item.Path == path {
			return item.Feature, true
		}
	}
	return "", false
}
