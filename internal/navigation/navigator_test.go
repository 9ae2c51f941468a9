package navigation

import "testing"

func TestStackPushAndCurrent(t *testing.T) {
	s := NewStack(RouteLanding)
	if s.Depth() != 1 || s.Current() != RouteLanding {
		t.Fatalf("fresh stack: depth=%d current=%q", s.Depth(), s.Current())
	}

	s.Push(RouteDoctorHome)
	if s.Depth() != 2 {
		t.Errorf("depth after push = %d, want 2", s.Depth())
	}
	if s.Current() != RouteDoctorHome {
		t.Errorf("current = %q, want %q", s.Current(), RouteDoctorHome)
	}
}

func TestStackReset(t *testing.T) {
	s := NewStack(RouteLanding)
	s.Push(RoutePatientDashboard)
	s.Push(RouteDoctorHome)

	s.Reset(RouteLanding)

	if s.Depth() != 1 {
		t.Errorf("depth after reset = %d, want 1", s.Depth())
	}
	if s.Current() != RouteLanding {
		t.Errorf("current after reset = %q, want %q", s.Current(), RouteLanding)
	}
}

func TestStackHistoryIsCopy(t *testing.T) {
	s := NewStack(RouteLanding)
	s.Push(RouteDoctorHome)

	h := s.History()
	h[0] = RouteClinicAdminHome

	if got := s.History()[0]; got != RouteLanding {
		t.Errorf("mutating History() result leaked into stack: %q", got)
	}
}
