package domain

import (
	"errors"
	"testing"
)

func TestLookupLanguage_AllEntries(t *testing.T) {
	expected := map[string]string{
		"Bengali":   "bn-IN",
		"Hindi":     "hi-IN",
		"English":   "en-IN",
		"Tamil":     "ta-IN",
		"Telugu":    "te-IN",
		"Kannada":   "kn-IN",
		"Malayalam": "ml-IN",
		"Marathi":   "mr-IN",
		"Gujarati":  "gu-IN",
		"Punjabi":   "pa-IN",
	}

	if len(Languages()) != len(expected) {
		t.Fatalf("expected %d languages, got %d", len(expected), len(Languages()))
	}

	for name, code := range expected {
		byName, err := LookupLanguage(name)
		if err != nil {
			t.Fatalf("lookup %q: unexpected error %v", name, err)
		}
		if byName.Code != code {
			t.Errorf("expected %q to map to %q, got %q", name, code, byName.Code)
		}

		byCode, err := LookupLanguage(code)
		if err != nil {
			t.Fatalf("lookup %q: unexpected error %v", code, err)
		}
		if byCode.Name != name {
			t.Errorf("expected code %q to map back to %q, got %q", code, name, byCode.Name)
		}
	}
}

func TestLookupLanguage_CaseInsensitiveName(t *testing.T) {
	l, err := LookupLanguage("  tamil ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if l.Code != "ta-IN" {
		t.Errorf("expected ta-IN, got %s", l.Code)
	}
}

func TestLookupLanguage_EmptyIsDefault(t *testing.T) {
	l, err := LookupLanguage("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if l != DefaultLanguage() || l.Code != "bn-IN" {
		t.Errorf("expected default Bengali, got %+v", l)
	}
}

func TestLookupLanguage_Unknown(t *testing.T) {
	_, err := LookupLanguage("Klingon")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("expected ErrUnknownLanguage, got %v", err)
	}
}

func TestLanguages_ReturnsCopy(t *testing.T) {
	ls := Languages()
	ls[0].Code = "xx-XX"
	if DefaultLanguage().Code != "bn-IN" {
		t.Error("mutating the returned slice must not change the table")
	}
}
