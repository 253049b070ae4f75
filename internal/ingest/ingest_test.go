package ingest

import (
	"errors"
	"testing"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"  Jane   Doe  ", "Jane Doe"},
		{"Jane Doe", "Jane Doe"},
		{"\tAcme\n Corp ", "Acme Corp"},
		{"Jane Doe", "Jane Doe"}, // non-breaking space from copied profile text
	}
	for _, c := range cases {
		if got := CleanText(c.in); got != c.want {
			t.Errorf("CleanText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if NormalizeKey("  Jane  DOE ") != NormalizeKey("jane doe") {
		t.Fatal("normalized keys should collide for equivalent names")
	}
	if NormalizeKey("") != "" {
		t.Fatal("empty input should stay empty")
	}
}

func TestDecodeFlatShape(t *testing.T) {
	raw := []byte(`{
		"name": "  Jane   Doe ",
		"title": "VP Engineering",
		"company": "Acme Corp",
		"email": "jane@acme.example",
		"profile_url": "https://www.linkedin.com/in/janedoe"
	}`)

	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Name != "Jane Doe" {
		t.Errorf("name not cleaned: %q", ev.Name)
	}
	if ev.Email != "jane@acme.example" || ev.Company != "Acme Corp" {
		t.Errorf("unexpected fields: %+v", ev)
	}
	if string(ev.Raw) != string(raw) {
		t.Error("raw payload should be preserved byte-for-byte")
	}
}

func TestDecodeNestedContactInfo(t *testing.T) {
	raw := []byte(`{
		"name": "Bob Smith",
		"contactInfo": {
			"email": "bob@widgets.example",
			"linkedinUrl": "https://linkedin.com/in/bobsmith",
			"websites": [{"url": "https://widgets.example", "text": "Company site"}]
		}
	}`)

	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Email != "bob@widgets.example" {
		t.Errorf("nested email not folded: %q", ev.Email)
	}
	if ev.LinkedInURL != "https://linkedin.com/in/bobsmith" {
		t.Errorf("nested linkedin url not folded: %q", ev.LinkedInURL)
	}
	if ev.WebsiteURL != "https://widgets.example" || ev.WebsiteText != "Company site" {
		t.Errorf("nested website not folded: %q %q", ev.WebsiteURL, ev.WebsiteText)
	}
	if ev.ContactInfo != nil {
		t.Error("contactInfo should be cleared after folding")
	}
}

func TestDecodeFlatWinsOverNested(t *testing.T) {
	raw := []byte(`{
		"name": "Bob Smith",
		"email": "flat@widgets.example",
		"contactInfo": {"email": "nested@widgets.example"}
	}`)
	ev, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Email != "flat@widgets.example" {
		t.Errorf("flat field should win, got %q", ev.Email)
	}
}

func TestDecodeRejectsMissingName(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"name": ""}`,
		`{"name": "   "}`,
		`{"email": "x@y.example"}`,
	} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Decode(%s) err = %v, want ErrInvalidPayload", raw, err)
		}
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	for _, raw := range []string{``, `not json`, `[1,2,3]`, `"str"`} {
		_, err := Decode([]byte(raw))
		if !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Decode(%q) err = %v, want ErrInvalidPayload", raw, err)
		}
	}
}

func TestEnrichFromHTML(t *testing.T) {
	ev := ContactEvent{
		Name: "Jane Doe",
		ProfileHTML: `<div>
			<h2 class="headline">Head of Data</h2>
			<span class="location">Berlin, Germany</span>
			<a href="#anchor">skip</a>
			<a href="https://janedoe.example">Personal site</a>
		</div>`,
	}
	EnrichFromHTML(&ev)

	if ev.Title != "Head of Data" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.Location != "Berlin, Germany" {
		t.Errorf("location = %q", ev.Location)
	}
	if ev.WebsiteURL != "https://janedoe.example" || ev.WebsiteText != "Personal site" {
		t.Errorf("website = %q %q", ev.WebsiteURL, ev.WebsiteText)
	}
}

func TestEnrichFromHTMLKeepsExplicitFields(t *testing.T) {
	ev := ContactEvent{
		Name:        "Jane Doe",
		Title:       "CTO",
		ProfileHTML: `<h2 class="headline">Intern</h2>`,
	}
	EnrichFromHTML(&ev)
	if ev.Title != "CTO" {
		t.Errorf("explicit title overwritten: %q", ev.Title)
	}
}

func TestEnrichFromHTMLNoSnippet(t *testing.T) {
	ev := ContactEvent{Name: "Jane Doe"}
	EnrichFromHTML(&ev)
	if ev.Title != "" || ev.WebsiteURL != "" {
		t.Errorf("empty snippet should change nothing: %+v", ev)
	}
}
