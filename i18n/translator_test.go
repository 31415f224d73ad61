package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_crs", nil); msg == "invalid_crs" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	defer SetLanguage("en")
	if msg := T("invalid_crs", nil); msg == dictionaries["en"]["invalid_crs"] {
		t.Fatalf("expected japanese message, got %q", msg)
	}
	// missing from ja, present in en
	if msg := T("bad_offset", nil); msg != dictionaries["en"]["bad_offset"] {
		t.Fatalf("expected english fallback, got %q", msg)
	}
}

func TestTranslator_PlaceholdersAndUnknownCodes(t *testing.T) {
	want := "the document lacks the platform field required by its metadata type"
	if msg := T("missing_field", map[string]string{"field": "platform"}); msg != want {
		t.Fatalf("got %q", msg)
	}
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes come back as themselves, got %q", msg)
	}
}

type upper struct{}

func (upper) Message(code string, _ map[string]string) string { return "CODE " + code }

func TestSetTranslator(t *testing.T) {
	SetTranslator(upper{})
	defer SetTranslator(nil)
	if msg := T("non_geo", nil); msg != "CODE non_geo" {
		t.Fatalf("got %q", msg)
	}
}
