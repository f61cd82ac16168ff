package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew_RegisteredCode(t *testing.T) {
	err := New("E001")

	if err.Code != "E001" {
		t.Errorf("Code = %q, want %q", err.Code, "E001")
	}
	if err.Category != CategoryServer {
		t.Errorf("Category = %q, want %q", err.Category, CategoryServer)
	}
	if err.Message == "" {
		t.Error("Message should not be empty for a registered code")
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("E999")

	if err.Code != "E999" {
		t.Errorf("Code = %q, want %q", err.Code, "E999")
	}
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want %q", err.Message, "Unknown error")
	}
}

func TestServeError_Error(t *testing.T) {
	withCode := &ServeError{Code: "E122", Message: "Invalid port"}
	if got := withCode.Error(); got != "E122: Invalid port" {
		t.Errorf("Error() = %q, want %q", got, "E122: Invalid port")
	}

	noCode := &ServeError{Message: "something failed"}
	if got := noCode.Error(); got != "something failed" {
		t.Errorf("Error() = %q, want %q", got, "something failed")
	}
}

func TestServeError_Unwrap(t *testing.T) {
	cause := stderrors.New("address in use")
	err := New("E001").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestServeError_Builders(t *testing.T) {
	err := New("E120").
		WithDetail("liveserve.json is malformed").
		WithSuggestion("Check that liveserve.json is valid JSON")

	if err.Detail != "liveserve.json is malformed" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "Check that liveserve.json is valid JSON" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unexpected argument %q", "foo")

	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
	if err.Message != `unexpected argument "foo"` {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E001") != nil {
		t.Error("FromError(nil) should return nil")
	}

	se := New("E122")
	if got := FromError(se, "E001"); got != se {
		t.Error("FromError should pass through an existing ServeError")
	}

	plain := stderrors.New("boom")
	wrapped := FromError(plain, "E001")
	if wrapped.Code != "E001" {
		t.Errorf("Code = %q, want %q", wrapped.Code, "E001")
	}
	if !stderrors.Is(wrapped, plain) {
		t.Error("wrapped error should retain the cause")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E001").
		WithSuggestion("Pick a different port with --port").
		Wrap(stderrors.New("listen tcp :4000: address already in use"))

	out := err.Format()

	for _, want := range []string{
		"E001",
		"Failed to bind server address",
		"caused by: listen tcp :4000: address already in use",
		"→ Pick a different port with --port",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}
