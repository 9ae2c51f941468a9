package navigation

import "strings"

// Role identifies which application area a signed-in user is entitled to
// see. Roles arrive from the backend as strings; anything outside the
// closed set below is treated as RoleUnknown and never granted a
// role-specific destination.
type Role string

const (
	RolePatient        Role = "patient"
	RoleCaregiver      Role = "caregiver"
	RoleDoctor         Role = "doctor"
	RoleMedicalStaff   Role = "medical_staff"
	RoleAmbulanceStaff Role = "ambulance_staff"
	RoleLabStaff       Role = "lab_staff"
	RolePharmacyStaff  Role = "pharmacy_staff"
	RoleClinicAdmin    Role = "clinic_admin"

	// RoleUnknown covers empty, unrecognized, and not-yet-loaded roles.
	RoleUnknown Role = ""
)

var knownRoles = map[Role]bool{
	RolePatient:        true,
	RoleCaregiver:      true,
	RoleDoctor:         true,
	RoleMedicalStaff:   true,
	RoleAmbulanceStaff: true,
	RoleLabStaff:       true,
	RolePharmacyStaff:  true,
	RoleClinicAdmin:    true,
}

// ParseRole normalizes a raw role string and maps it into the closed role
// set. Unrecognized values, including the empty string, parse to
// RoleUnknown rather than an error so that callers always hold a usable
// role.
func ParseRole(s string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if knownRoles[r] {
		return r
	}
	return RoleUnknown
}

// IsValid reports whether the role is a member of the closed role set.
func (r Role) IsValid() bool {
	return knownRoles[r]
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Roles returns the closed set of recognized roles in a stable order.
func Roles() []Role {
	return []Role{
		RolePatient,
		RoleCaregiver,
		RoleDoctor,
		RoleMedicalStaff,
		RoleAmbulanceStaff,
		RoleLabStaff,
		RolePharmacyStaff,
		RoleClinicAdmin,
	}
}
