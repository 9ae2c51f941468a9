package app

import (
	"fmt"

	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

// Screen is one named application area: a destination route, the roles
// allowed to view it, and a render func producing its terminal
// representation. An empty allow-list marks a public screen that skips
// both the gate and the guard.
type Screen struct {
	Name    string
	Route   navigation.Route
	Allowed []navigation.Role
	// Message overrides the guard's default denial message.
	Message string
	Render  func(sess session.Session) string
}

// Public reports whether the screen bypasses authentication.
func (s Screen) Public() bool {
	return len(s.Allowed) == 0
}

func greeting(sess session.Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	if sess.Email != "" {
		return sess.Email
	}
	return "there"
}

// DefaultScreens is the registry the shell boots with: the public landing
// screen, one home per role, and the shared clinical screens whose
// allow-lists span several roles.
func DefaultScreens() []Screen {
	return []Screen{
		{
			Name:  "landing",
			Route: navigation.RouteLanding,
			Render: func(sess session.Session) string {
				return "Welcome to Medicure. Sign in to continue."
			},
		},
		{
			Name:    "patient-dashboard",
			Route:   navigation.RoutePatientDashboard,
			Allowed: []navigation.Role{navigation.RolePatient, navigation.RoleCaregiver},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Patient dashboard — hello, %s.\nUpcoming appointments, prescriptions, and lab results live here.", greeting(sess))
			},
		},
		{
			Name:    "doctor-home",
			Route:   navigation.RouteDoctorHome,
			Allowed: []navigation.Role{navigation.RoleDoctor},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Doctor home — hello, %s.\nToday's schedule and patient queue live here.", greeting(sess))
			},
		},
		{
			Name:    "medical-staff-home",
			Route:   navigation.RouteMedicalStaffHome,
			Allowed: []navigation.Role{navigation.RoleMedicalStaff},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Medical staff home — hello, %s.", greeting(sess))
			},
		},
		{
			Name:    "ambulance-home",
			Route:   navigation.RouteAmbulanceStaffHome,
			Allowed: []navigation.Role{navigation.RoleAmbulanceStaff},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Ambulance dispatch — hello, %s.", greeting(sess))
			},
		},
		{
			Name:    "lab-home",
			Route:   navigation.RouteLabStaffHome,
			Allowed: []navigation.Role{navigation.RoleLabStaff},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Lab worklist — hello, %s.", greeting(sess))
			},
		},
		{
			Name:    "pharmacy-home",
			Route:   navigation.RoutePharmacyStaffHome,
			Allowed: []navigation.Role{navigation.RolePharmacyStaff},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Pharmacy queue — hello, %s.", greeting(sess))
			},
		},
		{
			Name:    "admin-home",
			Route:   navigation.RouteClinicAdminHome,
			Allowed: []navigation.Role{navigation.RoleClinicAdmin},
			Message: "This area is for clinic administrators.",
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Clinic administration — hello, %s.", greeting(sess))
			},
		},
		{
			Name:  "appointments",
			Route: navigation.RoutePatientDashboard,
			Allowed: []navigation.Role{
				navigation.RolePatient,
				navigation.RoleCaregiver,
				navigation.RoleDoctor,
			},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Appointments for %s.", greeting(sess))
			},
		},
		{
			Name:  "prescriptions",
			Route: navigation.RoutePharmacyStaffHome,
			Allowed: []navigation.Role{
				navigation.RoleDoctor,
				navigation.RolePharmacyStaff,
			},
			Render: func(sess session.Session) string {
				return fmt.Sprintf("Prescriptions worklist for %s.", greeting(sess))
			},
		},
	}
}
