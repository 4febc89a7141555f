package model

import (
	"testing"
	"time"
)

var testNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

// ============================================================================
// Club Roster Tests
// ============================================================================

func TestClub_AddMember_ReactivatesInsteadOfDuplicating(t *testing.T) {
	t.Parallel()

	c := &Club{MaxMembers: 10}
	c.AddMember("u1", MemberRoleMember, testNow)
	c.Members[0].Status = MemberStatusInactive
	c.AddMember("u1", MemberRoleMember, testNow.Add(time.Hour))

	if len(c.Members) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(c.Members))
	}
	if !c.IsActiveMember("u1") {
		t.Error("expected member to be reactivated")
	}
}

func TestClub_ActiveMembersCount_IgnoresInactive(t *testing.T) {
	t.Parallel()

	c := &Club{MaxMembers: 2, Members: []ClubMember{
		{UserID: "u1", Status: MemberStatusActive},
		{UserID: "u2", Status: MemberStatusInactive},
	}}

	if got := c.ActiveMembersCount(); got != 1 {
		t.Errorf("expected 1 active member, got %d", got)
	}
	if c.IsFull() {
		t.Error("club with one active member of two should not be full")
	}
}

func TestClub_UpsertAdmin_UpdatesRole(t *testing.T) {
	t.Parallel()

	c := &Club{}
	c.UpsertAdmin("u1", AdminRoleAdmin, testNow)
	c.UpsertAdmin("u1", AdminRoleSecretary, testNow)

	if len(c.Admins) != 1 {
		t.Fatalf("expected 1 admin, got %d", len(c.Admins))
	}
	if c.Admins[0].Role != AdminRoleSecretary {
		t.Errorf("expected role secretary, got %s", c.Admins[0].Role)
	}
}

func TestClub_EventRefs(t *testing.T) {
	t.Parallel()

	c := &Club{}
	c.AddEventRef("e1")
	c.AddEventRef("e1")
	c.AddEventRef("e2")

	if len(c.Events) != 2 {
		t.Fatalf("expected 2 event refs, got %d", len(c.Events))
	}
	if !c.RemoveEventRef("e1") || c.RemoveEventRef("e1") {
		t.Error("expected first removal to report a change and the second not to")
	}
}

// ============================================================================
// Event Derived Field Tests
// ============================================================================

func TestEvent_AvailableSpots_CountsOnlyGoing(t *testing.T) {
	t.Parallel()

	e := &Event{MaxCapacity: 2, RSVPs: []RSVP{
		{UserID: "u1", Status: RSVPStatusGoing},
		{UserID: "u2", Status: RSVPStatusMaybe},
		{UserID: "u3", Status: RSVPStatusNotGoing},
	}}

	counts := e.RSVPCounts()
	if counts.Going != 1 || counts.Maybe != 1 || counts.NotGoing != 1 || counts.Total != 3 {
		t.Errorf("unexpected counts %+v", counts)
	}
	if e.AvailableSpots() != 1 {
		t.Errorf("expected 1 available spot, got %d", e.AvailableSpots())
	}
	if e.IsFull() {
		t.Error("event should not be full")
	}
}

func TestEvent_AvailableSpots_NeverNegative(t *testing.T) {
	t.Parallel()

	e := &Event{MaxCapacity: 1, RSVPs: []RSVP{
		{UserID: "u1", Status: RSVPStatusGoing},
		{UserID: "u2", Status: RSVPStatusGoing},
	}}

	if e.AvailableSpots() != 0 {
		t.Errorf("expected 0 available spots, got %d", e.AvailableSpots())
	}
	if !e.IsFull() {
		t.Error("event over capacity should be full")
	}
}

func TestEvent_UpsertRSVP_IsIdempotentInSize(t *testing.T) {
	t.Parallel()

	e := &Event{MaxCapacity: 5}
	for i := 0; i < 3; i++ {
		e.UpsertRSVP("u1", RSVPStatusGoing, "", testNow)
	}
	e.UpsertRSVP("u1", RSVPStatusMaybe, "maybe later", testNow)

	if len(e.RSVPs) != 1 {
		t.Fatalf("expected 1 RSVP, got %d", len(e.RSVPs))
	}
	if e.RSVPs[0].Status != RSVPStatusMaybe {
		t.Errorf("expected maybe, got %s", e.RSVPs[0].Status)
	}
}

func TestEvent_CheckIn_OnlyOnce(t *testing.T) {
	t.Parallel()

	e := &Event{}
	if !e.CheckIn("u1", "admin", testNow) {
		t.Error("first check-in should add a record")
	}
	if e.CheckIn("u1", "admin", testNow) {
		t.Error("second check-in should be a no-op")
	}
	if len(e.Attendees) != 1 {
		t.Errorf("expected 1 attendee, got %d", len(e.Attendees))
	}
}

func TestEvent_Phase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		date   time.Time
		status EventStatus
		want   EventPhase
	}{
		{"cancelled wins over past", testNow.Add(-48 * time.Hour), EventStatusCancelled, EventPhaseCancelled},
		{"past is completed", testNow.Add(-time.Hour), EventStatusPublished, EventPhaseCompleted},
		{"later today", testNow.Add(3 * time.Hour), EventStatusPublished, EventPhaseToday},
		{"future day", testNow.Add(72 * time.Hour), EventStatusPublished, EventPhaseUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := &Event{Date: tt.date, Status: tt.status}
			if got := e.Phase(testNow); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAverageRating_RoundsToOneDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ratings []int
		want    float64
	}{
		{nil, 0},
		{[]int{5, 3, 4}, 4.0},
		{[]int{5, 4}, 4.5},
		{[]int{5, 5, 4}, 4.7},
		{[]int{1, 2, 2}, 1.7},
	}

	for _, tt := range tests {
		entries := make([]Feedback, 0, len(tt.ratings))
		for _, r := range tt.ratings {
			entries = append(entries, Feedback{Rating: r})
		}
		if got := AverageRating(entries); got != tt.want {
			t.Errorf("ratings %v: expected %.1f, got %v", tt.ratings, tt.want, got)
		}
	}
}

func TestEvent_RatingDistribution_HasAllBuckets(t *testing.T) {
	t.Parallel()

	e := &Event{Feedback: []Feedback{{Rating: 5}, {Rating: 5}, {Rating: 2}}}
	dist := e.RatingDistribution()

	if len(dist) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(dist))
	}
	if dist[5] != 2 || dist[2] != 1 || dist[1] != 0 {
		t.Errorf("unexpected distribution %v", dist)
	}
}

func TestEvent_IsRegistrationOpen(t *testing.T) {
	t.Parallel()

	deadline := testNow.Add(-time.Minute)
	open := &Event{MaxCapacity: 1}
	if !open.IsRegistrationOpen(testNow) {
		t.Error("event without registration should always be open")
	}
	closed := &Event{MaxCapacity: 10, RegistrationRequired: true, RegistrationDeadline: &deadline}
	if closed.IsRegistrationOpen(testNow) {
		t.Error("event past its deadline should be closed")
	}
}

func TestEvent_DurationMinutes(t *testing.T) {
	t.Parallel()

	e := &Event{Time: "9:30", EndTime: "11:00"}
	d := e.DurationMinutes()
	if d == nil || *d != 90 {
		t.Errorf("expected 90 minutes, got %v", d)
	}
	if (&Event{Time: "10:00"}).DurationMinutes() != nil {
		t.Error("expected nil duration without end time")
	}
}

// ============================================================================
// User Back-Reference Tests
// ============================================================================

func TestUser_SetEventRSVP_NotGoingRemoves(t *testing.T) {
	t.Parallel()

	u := &User{}
	u.SetEventRSVP("e1", RSVPStatusGoing, testNow)
	u.SetEventRSVP("e1", RSVPStatusMaybe, testNow)
	if len(u.EventRSVPs) != 1 || u.EventRSVPs[0].Status != RSVPStatusMaybe {
		t.Fatalf("expected one maybe reference, got %+v", u.EventRSVPs)
	}

	u.SetEventRSVP("e1", RSVPStatusNotGoing, testNow)
	if len(u.EventRSVPs) != 0 {
		t.Errorf("expected not-going to remove the reference, got %+v", u.EventRSVPs)
	}
}

func TestUser_SetMembership_ReplacesExisting(t *testing.T) {
	t.Parallel()

	u := &User{}
	u.SetMembership("c1", testNow)
	u.SetMembership("c1", testNow.Add(time.Hour))

	if len(u.JoinedClubs) != 1 {
		t.Fatalf("expected 1 membership, got %d", len(u.JoinedClubs))
	}
	if !u.IsMemberOf("c1") {
		t.Error("expected active membership")
	}
	if !u.RemoveMembership("c1") || u.IsMemberOf("c1") {
		t.Error("expected membership to be removed")
	}
}

// ============================================================================
// View Tests
// ============================================================================

func TestNewClubView_ComputesDerivedFields(t *testing.T) {
	t.Parallel()

	c := &Club{
		MaxMembers:      3,
		EstablishedDate: testNow.AddDate(-2, 0, -1),
		Members: []ClubMember{
			{UserID: "u1", Status: MemberStatusActive},
			{UserID: "u2", Status: MemberStatusActive},
		},
		PendingRequests: []JoinRequest{{UserID: "u3"}},
		Events:          []string{"e1", "e2"},
	}
	events := []*Event{
		{Attendees: []Attendee{{UserID: "u1"}, {UserID: "u2"}}},
		{Attendees: []Attendee{{UserID: "u1"}}},
	}

	v := NewClubView(c, events, testNow)

	if v.ActiveMembersCount != 2 || v.AvailableSeats != 1 || v.ActiveEventsCount != 2 {
		t.Errorf("unexpected counts %+v", v)
	}
	if v.ClubAge != 2 {
		t.Errorf("expected club age 2, got %d", v.ClubAge)
	}
	if v.Stats == nil || v.Stats.AverageAttendance != 1.5 {
		t.Errorf("expected average attendance 1.5, got %+v", v.Stats)
	}
	if v.PendingRequests != nil {
		t.Error("pending requests must not be exposed in the public view")
	}
}

func TestNewEventView_IncludesViewerRSVP(t *testing.T) {
	t.Parallel()

	e := &Event{
		MaxCapacity: 10,
		Date:        testNow.Add(72 * time.Hour),
		Status:      EventStatusPublished,
		RSVPs:       []RSVP{{UserID: "u1", Status: RSVPStatusGoing}},
		Feedback:    []Feedback{{UserID: "u2", Rating: 4}},
	}

	v := NewEventView(e, testNow, "u1")
	if v.MyRSVP == nil || v.MyRSVP.Status != RSVPStatusGoing {
		t.Errorf("expected viewer RSVP, got %+v", v.MyRSVP)
	}
	if v.AvailableSpots != 9 || v.Phase != EventPhaseUpcoming || v.Stats.AverageRating != 4 {
		t.Errorf("unexpected derived fields %+v", v)
	}

	anon := NewEventView(e, testNow, "")
	if anon.MyRSVP != nil {
		t.Error("anonymous viewer should not get an RSVP")
	}
}
