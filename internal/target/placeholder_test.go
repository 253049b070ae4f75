package target

import "testing"

func TestDefaultPlaceholderPattern(t *testing.T) {
	isPlaceholder, err := CompilePlaceholderPattern("")
	if err != nil {
		t.Fatalf("compile default: %v", err)
	}

	cases := []struct {
		email string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"unknown@company.com", true},
		{"UNKNOWN@company.com", true},
		{"noemail@anything.io", true},
		{"placeholder", true},
		{"jane@dummy.local", true},
		{"jane@example.com", true},
		{"jane@example.org", true},
		{"jane@acme.example", false},
		{"bob.smith@globex.io", false},
		{"myunknown@company.com", false}, // prefix markers anchor at the start
	}
	for _, c := range cases {
		if got := isPlaceholder(c.email); got != c.want {
			t.Errorf("isPlaceholder(%q) = %v, want %v", c.email, got, c.want)
		}
	}
}

func TestCustomPlaceholderPattern(t *testing.T) {
	isPlaceholder, err := CompilePlaceholderPattern(`@pending\.internal$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !isPlaceholder("x@pending.internal") {
		t.Error("custom pattern should match")
	}
	if isPlaceholder("unknown@company.com") {
		t.Error("custom pattern replaces the default, it does not extend it")
	}
	if !isPlaceholder("") {
		t.Error("empty email is always a placeholder")
	}
}

func TestBadPlaceholderPattern(t *testing.T) {
	if _, err := CompilePlaceholderPattern(`(`); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestKeepCandidate(t *testing.T) {
	isPlaceholder, _ := CompilePlaceholderPattern("")

	// previously-resolved rows stay in the set for no-op/conflict classification
	if !keepCandidate(Row{Email: "real@acme.example", EmailSource: SourceWebhook}, isPlaceholder) {
		t.Error("webhook-sourced row dropped")
	}
	if !keepCandidate(Row{Email: "unknown@x.com", EmailSource: SourceOriginal}, isPlaceholder) {
		t.Error("placeholder row dropped")
	}
	if keepCandidate(Row{Email: "real@acme.example", EmailSource: SourceOriginal}, isPlaceholder) {
		t.Error("organically-filled row should not be a candidate")
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent("contacts"); got != `"contacts"` {
		t.Errorf("quoteIdent = %s", got)
	}
	if got := quoteIdent(`bad"name`); got != `"bad""name"` {
		t.Errorf("quoteIdent with embedded quote = %s", got)
	}
}
