package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medicure/medicure/internal/navigation"
	"github.com/medicure/medicure/internal/session"
)

func managerWith(t *testing.T, values map[string]string) *session.Manager {
	t.Helper()
	store := session.NewMemStore()
	ctx := context.Background()
	for k, v := range values {
		if err := store.Set(ctx, k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	return session.NewManager(store, zerolog.Nop())
}

func TestRoleGuardAllowsMember(t *testing.T) {
	mgr := managerWith(t, map[string]string{
		session.KeyAuthToken: "abc",
		session.KeyUserRole:  "doctor",
	})
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RoleDoctor}, "", zerolog.Nop())

	d := guard.Evaluate(context.Background())
	if !d.Allowed {
		t.Fatalf("doctor should be allowed on a doctor screen, got %+v", d)
	}
	if d.Message != "" || d.Redirect != "" {
		t.Errorf("allowed decision must carry no fallback, got %+v", d)
	}
}

func TestRoleGuardDeniesNonMember(t *testing.T) {
	mgr := managerWith(t, map[string]string{
		session.KeyAuthToken: "abc",
		session.KeyUserRole:  "doctor",
	})
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RolePatient, navigation.RoleCaregiver}, "", zerolog.Nop())

	d := guard.Evaluate(context.Background())
	if d.Allowed {
		t.Fatal("doctor must not see a patient-only screen")
	}
	if d.Message != DefaultDeniedMessage {
		t.Errorf("message = %q, want default", d.Message)
	}
	// The single recovery action leads to the viewer's own home.
	if d.Redirect != navigation.RouteDoctorHome {
		t.Errorf("redirect = %q, want %q", d.Redirect, navigation.RouteDoctorHome)
	}
}

func TestRoleGuardCustomMessage(t *testing.T) {
	mgr := managerWith(t, map[string]string{
		session.KeyAuthToken: "abc",
		session.KeyUserRole:  "lab_staff",
	})
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RoleClinicAdmin}, "Admins only.", zerolog.Nop())

	d := guard.Evaluate(context.Background())
	if d.Allowed {
		t.Fatal("lab staff must not see the admin screen")
	}
	if d.Message != "Admins only." {
		t.Errorf("message = %q, want custom message", d.Message)
	}
	if d.Redirect != navigation.RouteLabStaffHome {
		t.Errorf("redirect = %q, want %q", d.Redirect, navigation.RouteLabStaffHome)
	}
}

func TestRoleGuardPartialSession(t *testing.T) {
	// Token present but no stored role: authenticated, yet every
	// role-scoped screen must deny and send the viewer to the landing
	// screen.
	mgr := managerWith(t, map[string]string{session.KeyAuthToken: "abc"})

	for _, allowed := range [][]navigation.Role{
		{navigation.RolePatient},
		{navigation.RoleDoctor},
		{navigation.RoleClinicAdmin, navigation.RoleMedicalStaff},
	} {
		guard := NewRoleGuard(mgr, allowed, "", zerolog.Nop())
		d := guard.Evaluate(context.Background())
		if d.Allowed {
			t.Errorf("role-unknown session allowed on %v", allowed)
		}
		if d.Redirect != navigation.RouteLanding {
			t.Errorf("role-unknown redirect = %q, want %q", d.Redirect, navigation.RouteLanding)
		}
	}
}

func TestRoleGuardUnrecognizedRole(t *testing.T) {
	mgr := managerWith(t, map[string]string{
		session.KeyAuthToken: "abc",
		session.KeyUserRole:  "martian",
	})
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RoleDoctor}, "", zerolog.Nop())

	d := guard.Evaluate(context.Background())
	if d.Allowed {
		t.Fatal("unrecognized role must never be allowed")
	}
	if d.Redirect != navigation.RouteLanding {
		t.Errorf("redirect = %q, want %q", d.Redirect, navigation.RouteLanding)
	}
}

func TestRoleGuardStoreFailureDenies(t *testing.T) {
	mgr := session.NewManager(erroringStore{err: errors.New("denied")}, zerolog.Nop())
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RoleDoctor}, "", zerolog.Nop())

	d := guard.Evaluate(context.Background())
	if d.Allowed {
		t.Fatal("store failure must deny")
	}
	if d.Redirect != navigation.RouteLanding {
		t.Errorf("redirect = %q, want %q", d.Redirect, navigation.RouteLanding)
	}
}

func TestRoleGuardCaregiverSharesPatientScreens(t *testing.T) {
	mgr := managerWith(t, map[string]string{
		session.KeyAuthToken: "abc",
		session.KeyUserRole:  "caregiver",
	})
	guard := NewRoleGuard(mgr, []navigation.Role{navigation.RolePatient, navigation.RoleCaregiver}, "", zerolog.Nop())

	if d := guard.Evaluate(context.Background()); !d.Allowed {
		t.Errorf("caregiver should share patient screens, got %+v", d)
	}
}
