package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidPayload marks events that cannot be stored as contacts. The raw
// payload is still written to the webhook log by the caller.
var ErrInvalidPayload = errors.New("invalid payload")

// ContactEvent is one profile-enrichment event from the scraping client.
// Two payload shapes arrive in the wild: the current flat shape and the
// older extension shape that nests email/links under "contactInfo". Decode
// accepts both and folds the nested values into the flat fields.
type ContactEvent struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Email       string `json:"email"`
	LinkedInURL string `json:"linkedin_url"`
	WebsiteURL  string `json:"website"`
	WebsiteText string `json:"website_text"`
	ProfileURL  string `json:"profile_url"`
	ProfileHTML string `json:"profile_html"`

	ContactInfo *contactInfo `json:"contactInfo,omitempty"`

	// Raw keeps the payload byte-for-byte for the audit trail.
	Raw json.RawMessage `json:"-"`
}

type contactInfo struct {
	Email       string        `json:"email"`
	LinkedInURL string        `json:"linkedinUrl"`
	Websites    []websiteLink `json:"websites"`
}

type websiteLink struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Decode parses and validates a raw webhook body.
func Decode(raw []byte) (ContactEvent, error) {
	if err := ValidateSchema(raw); err != nil {
		return ContactEvent{}, err
	}

	var ev ContactEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ContactEvent{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	ev.Raw = append(json.RawMessage(nil), raw...)
	ev.foldContactInfo()
	ev.normalize()

	if ev.Name == "" {
		return ContactEvent{}, fmt.Errorf("%w: missing name", ErrInvalidPayload)
	}
	return ev, nil
}

func (ev *ContactEvent) foldContactInfo() {
	ci := ev.ContactInfo
	if ci == nil {
		return
	}
	if ev.Email == "" {
		ev.Email = ci.Email
	}
	if ev.LinkedInURL == "" {
		ev.LinkedInURL = ci.LinkedInURL
	}
	if len(ci.Websites) > 0 {
		if ev.WebsiteURL == "" {
			ev.WebsiteURL = ci.Websites[0].URL
		}
		if ev.WebsiteText == "" {
			ev.WebsiteText = ci.Websites[0].Text
		}
	}
	ev.ContactInfo = nil
}

func (ev *ContactEvent) normalize() {
	ev.Name = CleanText(ev.Name)
	ev.Title = CleanText(ev.Title)
	ev.Company = CleanText(ev.Company)
	ev.Location = CleanText(ev.Location)
	ev.Email = CleanText(ev.Email)
	ev.LinkedInURL = CleanText(ev.LinkedInURL)
	ev.WebsiteURL = CleanText(ev.WebsiteURL)
	ev.ProfileURL = CleanText(ev.ProfileURL)
}
