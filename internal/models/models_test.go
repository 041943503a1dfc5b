package models_test

import (
	"encoding/json"
	"testing"

	"github.com/brianhealey/phonebook/internal/models"
)

func TestContact_SameName(t *testing.T) {
	c := models.Contact{ID: "1", Name: "Ada Lovelace", Number: "040-123456"}
	tests := []struct {
		name string
		want bool
	}{
		{"Ada Lovelace", true},
		{"ada lovelace", true},
		{"ADA LOVELACE", true},
		{"Ada", false},
		{"Ada Lovelace ", false},
	}
	for _, tt := range tests {
		if got := c.SameName(tt.name); got != tt.want {
			t.Errorf("SameName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDirectory_DeepCopyIsolation(t *testing.T) {
	d := models.Directory{Contacts: []models.Contact{{ID: "1", Name: "Ada", Number: "1"}}}
	cp := d.DeepCopy()
	cp.Contacts[0].Number = "99"

	if d.Contacts[0].Number != "1" {
		t.Errorf("original mutated through copy: number = %q", d.Contacts[0].Number)
	}
}

func TestEmptyDirectory_MarshalsEmptyArray(t *testing.T) {
	data, err := json.Marshal(models.EmptyDirectory())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"persons":[]}` {
		t.Errorf("got %s, want {\"persons\":[]}", data)
	}
}

func TestAppError_SerialisesMessageAsError(t *testing.T) {
	data, err := json.Marshal(models.ErrValidation("name", "name too short"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body["error"] != "name too short" {
		t.Errorf("error = %v, want %q", body["error"], "name too short")
	}
	if body["field"] != "name" {
		t.Errorf("field = %v, want %q", body["field"], "name")
	}
	if _, ok := body["Status"]; ok {
		t.Error("status must not be serialised")
	}
}
