package mail

import (
	"strings"
	"testing"
)

func TestTemplatesHaveUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for _, tpl := range Templates() {
		if seen[tpl.ID] {
			t.Errorf("duplicate template id %q", tpl.ID)
		}
		seen[tpl.ID] = true
		if _, ok := Lookup(tpl.ID); !ok {
			t.Errorf("Lookup(%q) failed", tpl.ID)
		}
	}
}

func TestRenderSubstitutesName(t *testing.T) {
	html, err := Render("report-ready", "Dana", "Threat Console")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Hi Dana,") {
		t.Error("rendered body does not greet the target by name")
	}
	if !strings.Contains(html, "Threat Console") {
		t.Error("rendered body does not name the sender")
	}
}

func TestRenderDefaultsName(t *testing.T) {
	html, err := Render("password-hygiene", "  ", "x")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(html, "Hi there,") {
		t.Error("empty name should render as 'there'")
	}
}

func TestRenderEscapesName(t *testing.T) {
	html, err := Render("report-ready", `<script>alert(1)</script>`, "x")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("target name was not escaped")
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	a, _ := Render("phishing-awareness", "Sam", "x")
	b, _ := Render("phishing-awareness", "Sam", "x")
	if a != b {
		t.Error("Render output differs between identical calls")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, err := Render("nope", "x", "y"); err != ErrUnknownTemplate {
		t.Errorf("err = %v, want ErrUnknownTemplate", err)
	}
}
