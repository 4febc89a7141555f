package model

import (
	"fmt"
	"strings"
	"time"
)

// DefaultFeeCurrency applies when a fee names no currency
const DefaultFeeCurrency = "INR"

// Event detail constraints
const (
	MaxEventPrerequisites = 20
	MaxEventAgendaItems   = 50
	MaxEventSpeakers      = 20
	MaxEventMaterials     = 50
)

// MaterialTypes are the accepted event material kinds
var MaterialTypes = []string{"document", "presentation", "video", "link", "other"}

// DefaultMaterialType applies when a material names no type
const DefaultMaterialType = "document"

// Fee is what attending an event costs
type Fee struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency,omitempty"`
	Description string  `json:"description,omitempty"`
}

// AgendaItem is one slot of an event programme. Duration is in minutes.
type AgendaItem struct {
	Time     string `json:"time,omitempty"`
	Activity string `json:"activity,omitempty"`
	Speaker  string `json:"speaker,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// Speaker is a presenter listed on an event
type Speaker struct {
	Name         string `json:"name"`
	Title        string `json:"title,omitempty"`
	Organization string `json:"organization,omitempty"`
	Bio          string `json:"bio,omitempty"`
	Image        string `json:"image,omitempty"`
	LinkedIn     string `json:"linkedin,omitempty"`
	Twitter      string `json:"twitter,omitempty"`
}

// Material is a resource shared with attendees
type Material struct {
	Name        string    `json:"name,omitempty"`
	Type        string    `json:"type"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// SocialMedia links an event to its social posts
type SocialMedia struct {
	Hashtag       string `json:"hashtag,omitempty"`
	FacebookEvent string `json:"facebook_event,omitempty"`
	LinkedInEvent string `json:"linkedin_event,omitempty"`
}

// EventDetails are the descriptive fields shared by create and update requests.
// On update a nil field is left unchanged.
type EventDetails struct {
	Fee           *Fee         `json:"fee,omitempty"`
	Prerequisites []string     `json:"prerequisites,omitempty"`
	Agenda        []AgendaItem `json:"agenda,omitempty"`
	Speakers      []Speaker    `json:"speakers,omitempty"`
	Materials     []Material   `json:"materials,omitempty"`
	Poster        *string      `json:"poster,omitempty"`
	SocialMedia   *SocialMedia `json:"social_media,omitempty"`
}

// Validate checks the detail fields that are present
func (d *EventDetails) Validate() []FieldError {
	var errors []FieldError

	if d.Fee != nil {
		if d.Fee.Amount < 0 {
			errors = append(errors, FieldError{Field: "fee.amount", Message: "fee amount cannot be negative"})
		}
		if c := strings.TrimSpace(d.Fee.Currency); c != "" && len(c) != 3 {
			errors = append(errors, FieldError{Field: "fee.currency", Message: "currency must be a 3-letter code"})
		}
	}
	if len(d.Prerequisites) > MaxEventPrerequisites {
		errors = append(errors, FieldError{Field: "prerequisites", Message: "an event may have at most 20 prerequisites"})
	}
	if len(d.Agenda) > MaxEventAgendaItems {
		errors = append(errors, FieldError{Field: "agenda", Message: "an agenda may have at most 50 items"})
	}
	for i, item := range d.Agenda {
		if item.Time != "" && !clockPattern.MatchString(item.Time) {
			errors = append(errors, FieldError{Field: fmt.Sprintf("agenda[%d].time", i), Message: "time must be in HH:MM format"})
		}
		if item.Duration < 0 {
			errors = append(errors, FieldError{Field: fmt.Sprintf("agenda[%d].duration", i), Message: "duration cannot be negative"})
		}
	}
	if len(d.Speakers) > MaxEventSpeakers {
		errors = append(errors, FieldError{Field: "speakers", Message: "an event may have at most 20 speakers"})
	}
	for i, sp := range d.Speakers {
		if strings.TrimSpace(sp.Name) == "" {
			errors = append(errors, FieldError{Field: fmt.Sprintf("speakers[%d].name", i), Message: "speaker name is required"})
		}
	}
	if len(d.Materials) > MaxEventMaterials {
		errors = append(errors, FieldError{Field: "materials", Message: "an event may have at most 50 materials"})
	}
	for i, m := range d.Materials {
		if m.Type != "" && !contains(MaterialTypes, m.Type) {
			errors = append(errors, FieldError{Field: fmt.Sprintf("materials[%d].type", i), Message: "material type must be document, presentation, video, link, or other"})
		}
	}

	return errors
}

// ApplyTo copies the present fields onto the event. Defaults are filled in and
// materials without an upload time are stamped with now.
func (d *EventDetails) ApplyTo(e *Event, now time.Time) {
	if d.Fee != nil {
		fee := *d.Fee
		fee.Currency = strings.ToUpper(strings.TrimSpace(fee.Currency))
		if fee.Currency == "" {
			fee.Currency = DefaultFeeCurrency
		}
		e.Fee = &fee
	}
	if d.Prerequisites != nil {
		e.Prerequisites = trimAll(d.Prerequisites)
	}
	if d.Agenda != nil {
		e.Agenda = d.Agenda
	}
	if d.Speakers != nil {
		e.Speakers = d.Speakers
	}
	if d.Materials != nil {
		materials := make([]Material, len(d.Materials))
		for i, m := range d.Materials {
			if m.Type == "" {
				m.Type = DefaultMaterialType
			}
			if m.UploadedAt.IsZero() {
				m.UploadedAt = now
			}
			materials[i] = m
		}
		e.Materials = materials
	}
	if d.Poster != nil {
		e.Poster = strings.TrimSpace(*d.Poster)
	}
	if d.SocialMedia != nil {
		sm := *d.SocialMedia
		e.SocialMedia = &sm
	}
}

// IsFree reports whether attending costs nothing
func (e *Event) IsFree() bool {
	return e.Fee == nil || e.Fee.Amount == 0
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
