// Package navigation holds the client-side navigation model: the closed
// role set, the named destination routes, the role-to-home resolver, and
// the navigator abstraction over the screen stack.
package navigation

// Route is a named destination screen.
type Route string

const (
	RouteLanding            Route = "Landing"
	RoutePatientDashboard   Route = "PatientDashboard"
	RouteDoctorHome         Route = "DoctorHome"
	RouteMedicalStaffHome   Route = "MedicalStaffHome"
	RouteAmbulanceStaffHome Route = "AmbulanceStaffHome"
	RouteLabStaffHome       Route = "LabStaffHome"
	RoutePharmacyStaffHome  Route = "PharmacyStaffHome"
	RouteClinicAdminHome    Route = "ClinicAdminHome"
)

// homeRoutes is the single authoritative mapping from role to home
// destination. New roles are added here and nowhere else.
var homeRoutes = map[Role]Route{
	RolePatient: RoutePatientDashboard,
	// Caregivers share the patient-facing destination; caregiver-specific
	// affordances are gated inside that screen, not by a separate route.
	RoleCaregiver:      RoutePatientDashboard,
	RoleDoctor:         RouteDoctorHome,
	RoleMedicalStaff:   RouteMedicalStaffHome,
	RoleAmbulanceStaff: RouteAmbulanceStaffHome,
	RoleLabStaff:       RouteLabStaffHome,
	RolePharmacyStaff:  RoutePharmacyStaffHome,
	RoleClinicAdmin:    RouteClinicAdminHome,
}

// HomeRoute returns the home destination for a role. It is total: every
// role, including RoleUnknown and values outside the closed set, resolves
// to exactly one route, with RouteLanding as the fallback.
func HomeRoute(r Role) Route {
	if dest, ok := homeRoutes[r]; ok {
		return dest
	}
	return RouteLanding
}

// Resolve maps a raw role string to its home destination. It combines
// ParseRole and HomeRoute so callers holding a backend-issued role string
// get the Landing fallback for anything unrecognized.
func Resolve(role string) Route {
	return HomeRoute(ParseRole(role))
}
