package model

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// UserRole is a user's global role
type UserRole string

const (
	UserRoleStudent    UserRole = "student" // Default role
	UserRoleClubMember UserRole = "club-member"
	UserRoleClubAdmin  UserRole = "club-admin" // May create clubs and events
	UserRoleSuperAdmin UserRole = "super-admin"
)

// IsValid returns true if the role is a known global role
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleStudent, UserRoleClubMember, UserRoleClubAdmin, UserRoleSuperAdmin:
		return true
	default:
		return false
	}
}

// CanCreate returns true if the role may create clubs and events
func (r UserRole) CanCreate() bool {
	return r == UserRoleClubAdmin || r == UserRoleSuperAdmin
}

// Department values for student accounts
const (
	StudentDeptCSE   = "CSE"
	StudentDeptISE   = "ISE"
	StudentDeptECE   = "ECE"
	StudentDeptEEE   = "EEE"
	StudentDeptME    = "ME"
	StudentDeptCE    = "CE"
	StudentDeptOther = "Other"
)

var studentDepartments = map[string]bool{
	StudentDeptCSE: true, StudentDeptISE: true, StudentDeptECE: true, StudentDeptEEE: true,
	StudentDeptME: true, StudentDeptCE: true, StudentDeptOther: true,
}

// Account constraints
const (
	MinUserNameLength = 2
	MaxUserNameLength = 50
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MaxBioLength      = 500
	MinStudyYear      = 1
	MaxStudyYear      = 4
)

// User is the account aggregate. The club and event collections are
// back-references owned by Club and Event and are only written by the
// services that mutate the owning side.
type User struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Email        string           `json:"email"`
	PasswordHash string           `json:"-"`
	Role         UserRole         `json:"role"`
	StudentID    string           `json:"student_id,omitempty"`
	Department   string           `json:"department,omitempty"`
	Year         int              `json:"year,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	Bio          string           `json:"bio,omitempty"`
	Interests    []string         `json:"interests,omitempty"`
	IsActive     bool             `json:"is_active"`
	JoinedClubs  []ClubMembership `json:"joined_clubs"`
	AdminClubs   []string         `json:"admin_clubs"`
	EventRSVPs   []EventRSVPRef   `json:"event_rsvps"`
	LastLogin    *time.Time       `json:"last_login,omitempty"`
	Version      int              `json:"version"`
	CreatedOn    time.Time        `json:"created_on"`
	UpdatedOn    time.Time        `json:"updated_on"`
}

// ClubMembership mirrors a user's entry in a club's member roster
type ClubMembership struct {
	ClubID   string       `json:"club_id"`
	JoinedAt time.Time    `json:"joined_at"`
	Status   MemberStatus `json:"status"`
}

// EventRSVPRef mirrors a user's going/maybe RSVP on an event
type EventRSVPRef struct {
	EventID string     `json:"event_id"`
	Status  RSVPStatus `json:"status"`
	RSVPAt  time.Time  `json:"rsvp_at"`
}

// IsSuperAdmin returns true if the user bypasses all club checks
func (u *User) IsSuperAdmin() bool {
	return u.Role == UserRoleSuperAdmin
}

// IsMemberOf returns true if the user holds an active membership reference
func (u *User) IsMemberOf(clubID string) bool {
	for _, m := range u.JoinedClubs {
		if m.ClubID == clubID && m.Status == MemberStatusActive {
			return true
		}
	}
	return false
}

// IsAdminOf returns true if the user holds an admin reference for the club
func (u *User) IsAdminOf(clubID string) bool {
	for _, id := range u.AdminClubs {
		if id == clubID {
			return true
		}
	}
	return false
}

// SetMembership replaces any reference to the club with an active one
func (u *User) SetMembership(clubID string, joinedAt time.Time) {
	u.RemoveMembership(clubID)
	u.JoinedClubs = append(u.JoinedClubs, ClubMembership{
		ClubID:   clubID,
		JoinedAt: joinedAt,
		Status:   MemberStatusActive,
	})
}

// RemoveMembership drops the club from JoinedClubs. Reports whether anything changed.
func (u *User) RemoveMembership(clubID string) bool {
	kept := u.JoinedClubs[:0]
	for _, m := range u.JoinedClubs {
		if m.ClubID != clubID {
			kept = append(kept, m)
		}
	}
	changed := len(kept) != len(u.JoinedClubs)
	u.JoinedClubs = kept
	return changed
}

// AddAdminClub records the admin relation once
func (u *User) AddAdminClub(clubID string) {
	if !u.IsAdminOf(clubID) {
		u.AdminClubs = append(u.AdminClubs, clubID)
	}
}

// RemoveAdminClub drops the admin relation. Reports whether anything changed.
func (u *User) RemoveAdminClub(clubID string) bool {
	kept := u.AdminClubs[:0]
	for _, id := range u.AdminClubs {
		if id != clubID {
			kept = append(kept, id)
		}
	}
	changed := len(kept) != len(u.AdminClubs)
	u.AdminClubs = kept
	return changed
}

// SetEventRSVP mirrors an RSVP. not-going removes the reference entirely.
func (u *User) SetEventRSVP(eventID string, status RSVPStatus, at time.Time) {
	u.RemoveEventRSVP(eventID)
	if status == RSVPStatusNotGoing {
		return
	}
	u.EventRSVPs = append(u.EventRSVPs, EventRSVPRef{EventID: eventID, Status: status, RSVPAt: at})
}

// RemoveEventRSVP drops the event reference. Reports whether anything changed.
func (u *User) RemoveEventRSVP(eventID string) bool {
	kept := u.EventRSVPs[:0]
	for _, r := range u.EventRSVPs {
		if r.EventID != eventID {
			kept = append(kept, r)
		}
	}
	changed := len(kept) != len(u.EventRSVPs)
	u.EventRSVPs = kept
	return changed
}

// Summary returns the public projection used when resolving references
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Department: u.Department,
		Year:       u.Year,
	}
}

// UserSummary is the read-side resolution of a user reference
type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
}

// Profile is the caller's own account with resolved back-references
type Profile struct {
	User       *User         `json:"user"`
	Clubs      []ProfileClub `json:"clubs"`
	AdminClubs []ClubSummary `json:"admin_clubs"`
	RSVPs      []ProfileRSVP `json:"rsvps"`
}

// ProfileClub is a resolved membership reference
type ProfileClub struct {
	Club     ClubSummary  `json:"club"`
	JoinedAt time.Time    `json:"joined_at"`
	Status   MemberStatus `json:"status"`
}

// ProfileRSVP is a resolved RSVP reference
type ProfileRSVP struct {
	Event  EventSummary `json:"event"`
	Status RSVPStatus   `json:"status"`
	RSVPAt time.Time    `json:"rsvp_at"`
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// RegisterRequest represents the request body for account registration
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	StudentID  string `json:"student_id,omitempty"`
	Department string `json:"department,omitempty"`
	Year       int    `json:"year,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks registration fields
func (r *RegisterRequest) Validate() []FieldError {
	var errors []FieldError

	name := strings.TrimSpace(r.Name)
	if n := utf8.RuneCountInString(name); n < MinUserNameLength || n > MaxUserNameLength {
		errors = append(errors, FieldError{Field: "name", Message: "name must be between 2 and 50 characters"})
	}
	email := NormalizeEmail(r.Email)
	if email == "" {
		errors = append(errors, FieldError{Field: "email", Message: "email is required"})
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errors = append(errors, FieldError{Field: "email", Message: "email is invalid"})
	}
	if len(r.Password) < MinPasswordLength {
		errors = append(errors, FieldError{Field: "password", Message: "password must be at least 6 characters"})
	} else if len(r.Password) > MaxPasswordLength {
		errors = append(errors, FieldError{Field: "password", Message: "password must be at most 128 characters"})
	}
	if r.Department != "" && !studentDepartments[r.Department] {
		errors = append(errors, FieldError{Field: "department", Message: "department must be one of CSE, ISE, ECE, EEE, ME, CE, Other"})
	}
	if r.Year != 0 && (r.Year < MinStudyYear || r.Year > MaxStudyYear) {
		errors = append(errors, FieldError{Field: "year", Message: "year must be between 1 and 4"})
	}
	if r.Phone != "" && !phonePattern.MatchString(strings.TrimSpace(r.Phone)) {
		errors = append(errors, FieldError{Field: "phone", Message: "phone must be a 10 digit mobile number"})
	}

	return errors
}

// LoginRequest represents the request body for password login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangeRoleRequest represents a super-admin role change
type ChangeRoleRequest struct {
	Role UserRole `json:"role"`
}

// Validate checks the requested role
func (r *ChangeRoleRequest) Validate() []FieldError {
	if !r.Role.IsValid() {
		return []FieldError{{Field: "role", Message: "role must be student, club-member, club-admin, or super-admin"}}
	}
	return nil
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
