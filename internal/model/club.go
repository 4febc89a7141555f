package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// MemberRole is a member's role within a club roster
type MemberRole string

const (
	MemberRoleMember      MemberRole = "member"
	MemberRoleVolunteer   MemberRole = "volunteer"
	MemberRoleCoordinator MemberRole = "coordinator"
)

// IsValid returns true if the role is a known member role
func (r MemberRole) IsValid() bool {
	switch r {
	case MemberRoleMember, MemberRoleVolunteer, MemberRoleCoordinator:
		return true
	default:
		return false
	}
}

// MemberStatus is the lifecycle state of a roster entry
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
)

// AdminRole is an officer role held by a club admin
type AdminRole string

const (
	AdminRoleAdmin         AdminRole = "admin"
	AdminRolePresident     AdminRole = "president" // Assigned to the founder
	AdminRoleVicePresident AdminRole = "vice-president"
	AdminRoleSecretary     AdminRole = "secretary"
	AdminRoleTreasurer     AdminRole = "treasurer"
)

// IsValid returns true if the role is a known officer role
func (r AdminRole) IsValid() bool {
	switch r {
	case AdminRoleAdmin, AdminRolePresident, AdminRoleVicePresident, AdminRoleSecretary, AdminRoleTreasurer:
		return true
	default:
		return false
	}
}

// ClubCategories lists the accepted club categories
var ClubCategories = []string{
	"Technical",
	"Cultural",
	"Social Service",
	"Environmental",
	"Innovation & Entrepreneurship",
	"Sports",
	"Academic",
	"Personality Development",
	"Professional Development",
	"Media & Communication",
	"Health & Wellbeing",
}

// DefaultClubDepartment is used when a club is created without a department
const DefaultClubDepartment = "Institution-wide"

// ClubDepartments lists the accepted club departments
var ClubDepartments = []string{
	DefaultClubDepartment,
	"CSE/ISE",
	"ECE",
	"EEE",
	"Mechanical Engineering",
	"Civil Engineering",
	"Open to all students",
	"Multi-disciplinary",
	"CSE/ISE (tech-focused)",
	"ECE (exclusive)",
	"Cultural club",
	"Environmental initiative",
	"Social initiative",
	"Under Placement Cell",
}

var (
	meetingDays        = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	meetingFrequencies = []string{"weekly", "bi-weekly", "monthly", "as-needed"}

	// AchievementCategories are the accepted achievement kinds
	AchievementCategories = []string{"award", "recognition", "event", "project", "competition", "other"}
)

// DefaultAchievementCategory applies when an achievement names no category
const DefaultAchievementCategory = "other"

// Club constraints
const (
	MinClubNameLength        = 3
	MaxClubNameLength        = 100
	MinClubDescriptionLength = 20
	MaxClubDescriptionLength = 1000
	MaxClubFocusLength       = 200
	MaxJoinMessageLength     = 500
	DefaultMaxMembers        = 100
	MaxClubTags              = 20
	MaxClubAchievements      = 50
)

// Club is the club aggregate. It exclusively owns its rosters and event references.
type Club struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	NameKey              string           `json:"-"`
	Description          string           `json:"description"`
	Category             string           `json:"category"`
	Department           string           `json:"department"`
	Focus                string           `json:"focus,omitempty"`
	Logo                 string           `json:"logo,omitempty"`
	Tags                 []string         `json:"tags,omitempty"`
	Rules                []string         `json:"rules,omitempty"`
	ContactInfo          *ContactInfo     `json:"contact_info,omitempty"`
	MeetingSchedule      *MeetingSchedule `json:"meeting_schedule,omitempty"`
	BannerImage          string           `json:"banner_image,omitempty"`
	Achievements         []Achievement    `json:"achievements,omitempty"`
	MaxMembers           int              `json:"max_members"`
	JoinApprovalRequired bool             `json:"join_approval_required"`
	IsActive             bool             `json:"is_active"`
	EstablishedDate      time.Time        `json:"established_date"`
	Members              []ClubMember     `json:"members"`
	Admins               []ClubAdmin      `json:"admins"`
	PendingRequests      []JoinRequest    `json:"pending_requests"`
	Events               []string         `json:"events"`
	Version              int              `json:"version"`
	CreatedOn            time.Time        `json:"created_on"`
	UpdatedOn            time.Time        `json:"updated_on"`
}

// ClubMember is an entry in a club's member roster
type ClubMember struct {
	UserID   string       `json:"user_id"`
	Role     MemberRole   `json:"role"`
	Status   MemberStatus `json:"status"`
	JoinedAt time.Time    `json:"joined_at"`
}

// ClubAdmin is an entry in a club's admin roster
type ClubAdmin struct {
	UserID      string    `json:"user_id"`
	Role        AdminRole `json:"role"`
	AppointedAt time.Time `json:"appointed_at"`
}

// JoinRequest is a pending admission request
type JoinRequest struct {
	UserID      string    `json:"user_id"`
	Message     string    `json:"message,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// ContactInfo holds public contact channels for a club
type ContactInfo struct {
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Website   string `json:"website,omitempty"`
}

// MeetingSchedule describes a club's recurring meeting
type MeetingSchedule struct {
	Day       string `json:"day,omitempty"`
	Time      string `json:"time,omitempty"`
	Location  string `json:"location,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

// Achievement is an award or milestone a club lists on its profile
type Achievement struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Image       string     `json:"image,omitempty"`
	Category    string     `json:"category"`
}

// ClubNameKey is the normalized form used for the case-insensitive unique constraint.
// A Caser holds state, so one is built per call.
func ClubNameKey(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}

// Member returns the roster entry for the user, or nil
func (c *Club) Member(userID string) *ClubMember {
	for i := range c.Members {
		if c.Members[i].UserID == userID {
			return &c.Members[i]
		}
	}
	return nil
}

// IsActiveMember returns true if the user is an active roster member
func (c *Club) IsActiveMember(userID string) bool {
	m := c.Member(userID)
	return m != nil && m.Status == MemberStatusActive
}

// Admin returns the admin entry for the user, or nil
func (c *Club) Admin(userID string) *ClubAdmin {
	for i := range c.Admins {
		if c.Admins[i].UserID == userID {
			return &c.Admins[i]
		}
	}
	return nil
}

// IsAdmin returns true if the user is in the admin roster
func (c *Club) IsAdmin(userID string) bool {
	return c.Admin(userID) != nil
}

// ActiveMembersCount counts members with status active
func (c *Club) ActiveMembersCount() int {
	n := 0
	for _, m := range c.Members {
		if m.Status == MemberStatusActive {
			n++
		}
	}
	return n
}

// IsFull returns true if no further active member fits
func (c *Club) IsFull() bool {
	return c.ActiveMembersCount() >= c.MaxMembers
}

// AddMember inserts the user as an active member, reactivating an existing entry
// instead of duplicating it.
func (c *Club) AddMember(userID string, role MemberRole, at time.Time) {
	if m := c.Member(userID); m != nil {
		m.Status = MemberStatusActive
		m.Role = role
		m.JoinedAt = at
		return
	}
	c.Members = append(c.Members, ClubMember{
		UserID:   userID,
		Role:     role,
		Status:   MemberStatusActive,
		JoinedAt: at,
	})
}

// RemoveMember drops the user's roster entry. Reports whether anything changed.
func (c *Club) RemoveMember(userID string) bool {
	kept := c.Members[:0]
	for _, m := range c.Members {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	changed := len(kept) != len(c.Members)
	c.Members = kept
	return changed
}

// UpsertAdmin adds the admin or updates the role of an existing one
func (c *Club) UpsertAdmin(userID string, role AdminRole, at time.Time) {
	if a := c.Admin(userID); a != nil {
		a.Role = role
		return
	}
	c.Admins = append(c.Admins, ClubAdmin{UserID: userID, Role: role, AppointedAt: at})
}

// PendingRequest returns the user's pending request, or nil
func (c *Club) PendingRequest(userID string) *JoinRequest {
	for i := range c.PendingRequests {
		if c.PendingRequests[i].UserID == userID {
			return &c.PendingRequests[i]
		}
	}
	return nil
}

// RemovePendingRequest drops the user's pending request. Reports whether anything changed.
func (c *Club) RemovePendingRequest(userID string) bool {
	kept := c.PendingRequests[:0]
	for _, r := range c.PendingRequests {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	changed := len(kept) != len(c.PendingRequests)
	c.PendingRequests = kept
	return changed
}

// AddEventRef records an owned event once
func (c *Club) AddEventRef(eventID string) {
	for _, id := range c.Events {
		if id == eventID {
			return
		}
	}
	c.Events = append(c.Events, eventID)
}

// RemoveEventRef drops an event reference. Reports whether anything changed.
func (c *Club) RemoveEventRef(eventID string) bool {
	kept := c.Events[:0]
	for _, id := range c.Events {
		if id != eventID {
			kept = append(kept, id)
		}
	}
	changed := len(kept) != len(c.Events)
	c.Events = kept
	return changed
}

// CreateClubRequest represents the request body for creating a club
type CreateClubRequest struct {
	Name                 string           `json:"name"`
	Description          string           `json:"description"`
	Category             string           `json:"category"`
	Department           string           `json:"department,omitempty"`
	Focus                string           `json:"focus,omitempty"`
	Logo                 string           `json:"logo,omitempty"`
	Tags                 []string         `json:"tags,omitempty"`
	Rules                []string         `json:"rules,omitempty"`
	ContactInfo          *ContactInfo     `json:"contact_info,omitempty"`
	MeetingSchedule      *MeetingSchedule `json:"meeting_schedule,omitempty"`
	BannerImage          string           `json:"banner_image,omitempty"`
	Achievements         []Achievement    `json:"achievements,omitempty"`
	MaxMembers           *int             `json:"max_members,omitempty"`
	JoinApprovalRequired bool             `json:"join_approval_required"`
}

// Validate checks the club fields
func (r *CreateClubRequest) Validate() []FieldError {
	var errors []FieldError

	errors = append(errors, validateClubName(r.Name)...)
	errors = append(errors, validateClubDescription(r.Description)...)
	if r.Category == "" {
		errors = append(errors, FieldError{Field: "category", Message: "category is required"})
	} else if !contains(ClubCategories, r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category is not a recognised club category"})
	}
	if r.Department != "" && !contains(ClubDepartments, r.Department) {
		errors = append(errors, FieldError{Field: "department", Message: "department is not a recognised club department"})
	}
	if utf8.RuneCountInString(strings.TrimSpace(r.Focus)) > MaxClubFocusLength {
		errors = append(errors, FieldError{Field: "focus", Message: "focus must be 200 characters or less"})
	}
	if len(r.Tags) > MaxClubTags {
		errors = append(errors, FieldError{Field: "tags", Message: "a club may have at most 20 tags"})
	}
	if r.MaxMembers != nil && *r.MaxMembers < 1 {
		errors = append(errors, FieldError{Field: "max_members", Message: "max_members must be at least 1"})
	}
	errors = append(errors, validateMeetingSchedule(r.MeetingSchedule)...)
	errors = append(errors, validateAchievements(r.Achievements)...)

	return errors
}

// UpdateClubRequest represents a partial club update
type UpdateClubRequest struct {
	Name                 *string          `json:"name,omitempty"`
	Description          *string          `json:"description,omitempty"`
	Category             *string          `json:"category,omitempty"`
	Department           *string          `json:"department,omitempty"`
	Focus                *string          `json:"focus,omitempty"`
	Logo                 *string          `json:"logo,omitempty"`
	Tags                 []string         `json:"tags,omitempty"`
	Rules                []string         `json:"rules,omitempty"`
	ContactInfo          *ContactInfo     `json:"contact_info,omitempty"`
	MeetingSchedule      *MeetingSchedule `json:"meeting_schedule,omitempty"`
	BannerImage          *string          `json:"banner_image,omitempty"`
	Achievements         []Achievement    `json:"achievements,omitempty"`
	MaxMembers           *int             `json:"max_members,omitempty"`
	JoinApprovalRequired *bool            `json:"join_approval_required,omitempty"`
	IsActive             *bool            `json:"is_active,omitempty"`
}

// Validate checks the fields present in the update
func (r *UpdateClubRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		errors = append(errors, validateClubName(*r.Name)...)
	}
	if r.Description != nil {
		errors = append(errors, validateClubDescription(*r.Description)...)
	}
	if r.Category != nil && !contains(ClubCategories, *r.Category) {
		errors = append(errors, FieldError{Field: "category", Message: "category is not a recognised club category"})
	}
	if r.Department != nil && !contains(ClubDepartments, *r.Department) {
		errors = append(errors, FieldError{Field: "department", Message: "department is not a recognised club department"})
	}
	if r.Focus != nil && utf8.RuneCountInString(strings.TrimSpace(*r.Focus)) > MaxClubFocusLength {
		errors = append(errors, FieldError{Field: "focus", Message: "focus must be 200 characters or less"})
	}
	if len(r.Tags) > MaxClubTags {
		errors = append(errors, FieldError{Field: "tags", Message: "a club may have at most 20 tags"})
	}
	if r.MaxMembers != nil && *r.MaxMembers < 1 {
		errors = append(errors, FieldError{Field: "max_members", Message: "max_members must be at least 1"})
	}
	errors = append(errors, validateMeetingSchedule(r.MeetingSchedule)...)
	errors = append(errors, validateAchievements(r.Achievements)...)

	return errors
}

// JoinClubRequest carries the optional message for approval-gated clubs
type JoinClubRequest struct {
	Message string `json:"message,omitempty"`
}

// Validate checks the join message length
func (r *JoinClubRequest) Validate() []FieldError {
	if utf8.RuneCountInString(r.Message) > MaxJoinMessageLength {
		return []FieldError{{Field: "message", Message: "message must be 500 characters or less"}}
	}
	return nil
}

// AddAdminRequest assigns an officer role
type AddAdminRequest struct {
	Role AdminRole `json:"role"`
}

// Validate checks the officer role
func (r *AddAdminRequest) Validate() []FieldError {
	if r.Role == "" {
		return nil
	}
	if !r.Role.IsValid() {
		return []FieldError{{Field: "role", Message: "role must be admin, president, vice-president, secretary, or treasurer"}}
	}
	return nil
}

// JoinOutcome tells the caller whether a join was applied or queued
type JoinOutcome string

const (
	JoinOutcomeJoined  JoinOutcome = "joined"
	JoinOutcomePending JoinOutcome = "pending"
)

// JoinResult is returned by a join call
type JoinResult struct {
	Outcome JoinOutcome `json:"outcome"`
	Club    *ClubView   `json:"club"`
}

func validateClubName(name string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return []FieldError{{Field: "name", Message: "name is required"}}
	}
	if n < MinClubNameLength || n > MaxClubNameLength {
		return []FieldError{{Field: "name", Message: "name must be between 3 and 100 characters"}}
	}
	return nil
}

func validateClubDescription(description string) []FieldError {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	if n == 0 {
		return []FieldError{{Field: "description", Message: "description is required"}}
	}
	if n < MinClubDescriptionLength || n > MaxClubDescriptionLength {
		return []FieldError{{Field: "description", Message: "description must be between 20 and 1000 characters"}}
	}
	return nil
}

func validateMeetingSchedule(s *MeetingSchedule) []FieldError {
	if s == nil {
		return nil
	}
	var errors []FieldError
	if s.Day != "" && !contains(meetingDays, s.Day) {
		errors = append(errors, FieldError{Field: "meeting_schedule.day", Message: "day must be a weekday name"})
	}
	if s.Frequency != "" && !contains(meetingFrequencies, s.Frequency) {
		errors = append(errors, FieldError{Field: "meeting_schedule.frequency", Message: "frequency must be weekly, bi-weekly, monthly, or as-needed"})
	}
	return errors
}

func validateAchievements(achievements []Achievement) []FieldError {
	var errors []FieldError
	if len(achievements) > MaxClubAchievements {
		errors = append(errors, FieldError{Field: "achievements", Message: "a club may list at most 50 achievements"})
	}
	for i, a := range achievements {
		if strings.TrimSpace(a.Title) == "" {
			errors = append(errors, FieldError{Field: fmt.Sprintf("achievements[%d].title", i), Message: "achievement title is required"})
		}
		if a.Category != "" && !contains(AchievementCategories, a.Category) {
			errors = append(errors, FieldError{Field: fmt.Sprintf("achievements[%d].category", i), Message: "category must be award, recognition, event, project, competition, or other"})
		}
	}
	return errors
}

// NormalizeAchievements trims titles and fills in the default category
func NormalizeAchievements(achievements []Achievement) []Achievement {
	out := make([]Achievement, len(achievements))
	for i, a := range achievements {
		a.Title = strings.TrimSpace(a.Title)
		if a.Category == "" {
			a.Category = DefaultAchievementCategory
		}
		out[i] = a
	}
	return out
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
