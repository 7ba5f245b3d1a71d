package sources

import (
	"testing"

	"leadrouter_backend/internal/sources/transport"
	"leadrouter_backend/platform/validator"
)

func TestSourceCodeValidation(t *testing.T) {
	val := validator.New()
	if _, err := NewModule(nil, val); err != nil {
		t.Fatalf("module init failed: %v", err)
	}

	valid := []string{"website", "google-ads", "landing_2024", "VK"}
	for _, code := range valid {
		req := transport.CreateSourceRequest{Name: "Source", Code: code}
		if err := val.Struct(req); err != nil {
			t.Fatalf("code %q must pass validation: %v", code, err)
		}
	}

	invalid := []string{"bad code", "почта", "web!", "a/b", ""}
	for _, code := range invalid {
		req := transport.CreateSourceRequest{Name: "Source", Code: code}
		if err := val.Struct(req); err == nil {
			t.Fatalf("code %q must fail validation", code)
		}
	}
}
