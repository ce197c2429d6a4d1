package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("super-secret-token")

	if got := s.String(); strings.Contains(got, "super-secret-token") {
		t.Errorf("String() leaked the value: %q", got)
	}
	if got := fmt.Sprintf("%v", s); strings.Contains(got, "super-secret-token") {
		t.Errorf("Sprintf leaked the value: %q", got)
	}
	if got := fmt.Sprintf("%#v", s); strings.Contains(got, "super-secret-token") {
		t.Errorf("GoString leaked the value: %q", got)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), "super-secret-token") {
		t.Errorf("JSON leaked the value: %s", raw)
	}

	if s.Expose() != "super-secret-token" {
		t.Errorf("Expose() = %q", s.Expose())
	}
}

func TestSecretIsEmpty(t *testing.T) {
	if !(Secret{}).IsEmpty() {
		t.Error("zero Secret is not empty")
	}
	if NewSecret("x").IsEmpty() {
		t.Error("non-empty Secret reports empty")
	}
}
