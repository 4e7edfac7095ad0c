package util

import "testing"

func TestExtractJSONObject_Plain(t *testing.T) {
	got, err := ExtractJSONObject(`{"title": "Soup"}`)
	if err != nil {
		t.Fatalf("ExtractJSONObject error: %v", err)
	}
	if got != `{"title": "Soup"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_CodeFence(t *testing.T) {
	raw := "Here is the recipe:\n```json\n{\"title\": \"Soup\"}\n```\nEnjoy!"
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject error: %v", err)
	}
	if got != `{"title": "Soup"}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_NestedObjects(t *testing.T) {
	raw := `prose {"a": {"b": {"c": 1}}, "d": 2} trailing`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject error: %v", err)
	}
	if got != `{"a": {"b": {"c": 1}}, "d": 2}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_BracesInsideStrings(t *testing.T) {
	raw := `{"note": "use {exactly} one } cup", "n": 1}`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject error: %v", err)
	}
	if got != raw {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_EscapedQuoteInString(t *testing.T) {
	raw := `{"note": "say \"stop\" when done}"}`
	got, err := ExtractJSONObject(raw)
	if err != nil {
		t.Fatalf("ExtractJSONObject error: %v", err)
	}
	if got != raw {
		t.Errorf("got %q", got)
	}
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	if _, err := ExtractJSONObject("no json here"); err == nil {
		t.Error("ExtractJSONObject should fail when no object is present")
	}
}

func TestExtractJSONObject_Unterminated(t *testing.T) {
	if _, err := ExtractJSONObject(`{"title": "Soup"`); err == nil {
		t.Error("ExtractJSONObject should fail on an unterminated object")
	}
}
