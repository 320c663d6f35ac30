package validator

import (
	"context"
	"testing"
)

type guestForm struct {
	Name   string `validate:"required"`
	Email  string `validate:"omitempty,email"`
	Status string `validate:"omitempty,gueststatus"`
	Image  string `validate:"omitempty,webresource"`
}

func TestRequiredField(t *testing.T) {
	err := Validate(context.Background(), guestForm{})
	if err == nil {
		t.Fatal("missing name should fail validation")
	}
}

func TestGuestStatusRule(t *testing.T) {
	for _, status := range []string{"pending", "confirmed", "declined"} {
		if err := Validate(context.Background(), guestForm{Name: "a", Status: status}); err != nil {
			t.Fatalf("status %q rejected: %v", status, err)
		}
	}
	if err := Validate(context.Background(), guestForm{Name: "a", Status: "maybe"}); err == nil {
		t.Fatal("unknown status should fail")
	}
}

func TestWebResourceRule(t *testing.T) {
	valid := []string{
		"https://example.com/banner.png",
		"http://example.com/x",
		"data:image/png;base64,iVBORw0KGgo=",
	}
	for _, v := range valid {
		if err := Validate(context.Background(), guestForm{Name: "a", Image: v}); err != nil {
			t.Fatalf("%q rejected: %v", v, err)
		}
	}
	if err := Validate(context.Background(), guestForm{Name: "a", Image: "javascript:alert(1)"}); err == nil {
		t.Fatal("non-web resource should fail")
	}
}
