package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]int{
		CodeEmptyCart:       http.StatusBadRequest,
		CodeStaleCart:       http.StatusConflict,
		CodePaymentProvider: http.StatusServiceUnavailable,
		CodeGrantNotFound:   http.StatusNotFound,
		CodeGrantExpired:    http.StatusGone,
		CodeGrantExhausted:  http.StatusConflict,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", code, got, want)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "load order")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("unexpected code %s", As(err).Code())
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(CodeGrantExhausted, "limit reached")
	if !Is(err, CodeGrantExhausted) {
		t.Fatal("expected Is to match the grant code")
	}
	if Is(err, CodeGrantExpired) {
		t.Fatal("expected Is to reject a different code")
	}
	if Is(stdErrors.New("plain"), CodeGrantExpired) {
		t.Fatal("expected Is to reject untyped errors")
	}
}
