package validators

import (
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/caterbase/caterbase-backend/pkg/errors"
)

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?limit=25", nil)
	got, err := ParseQueryInt(r, "limit", 10, 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestParseQueryIntDefaultsWhenAbsent(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders", nil)
	got, err := ParseQueryInt(r, "limit", 10, 1, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 10 {
		t.Fatalf("expected default 10, got %d", got)
	}
}

func TestParseQueryIntRejectsOutOfRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?limit=9000", nil)
	if _, err := ParseQueryInt(r, "limit", 10, 1, 100); err == nil {
		t.Fatal("expected out-of-range error")
	}
	r = httptest.NewRequest("GET", "/orders?limit=abc", nil)
	_, err := ParseQueryInt(r, "limit", 10, 1, 100)
	if err == nil {
		t.Fatal("expected non-numeric error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestParseQueryUUID(t *testing.T) {
	r := httptest.NewRequest("GET", "/payments?customerId=not-a-uuid", nil)
	if _, err := ParseQueryUUID(r, "customerId"); err == nil {
		t.Fatal("expected uuid error")
	}

	r = httptest.NewRequest("GET", "/payments", nil)
	id, err := ParseQueryUUID(r, "customerId")
	if err != nil || id != nil {
		t.Fatalf("absent parameter should be nil, got %v %v", id, err)
	}
}

func TestParseQueryDecimal(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?amountMin=99.50", nil)
	value, err := ParseQueryDecimal(r, "amountMin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value == nil || value.String() != "99.5" {
		t.Fatalf("unexpected value %v", value)
	}

	r = httptest.NewRequest("GET", "/orders?amountMin=cheap", nil)
	if _, err := ParseQueryDecimal(r, "amountMin"); err == nil {
		t.Fatal("expected decimal error")
	}
}

func TestParseQueryTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?createdFrom=2026-01-15T00:00:00Z", nil)
	value, err := ParseQueryTime(r, "createdFrom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value == nil || value.Year() != 2026 {
		t.Fatalf("unexpected value %v", value)
	}

	r = httptest.NewRequest("GET", "/orders?createdFrom=yesterday", nil)
	if _, err := ParseQueryTime(r, "createdFrom"); err == nil {
		t.Fatal("expected timestamp error")
	}
}
