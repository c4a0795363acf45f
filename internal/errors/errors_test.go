package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "dirty during tracking",
			code:    CodeDirtyDuringTracking,
			wantMsg: "Tag dirtied while a tracking frame was open",
			wantCat: CategoryTracking,
		},
		{
			name:    "backtracking",
			code:    CodeBacktracking,
			wantMsg: "Value changed after it was read in the same pass",
			wantCat: CategoryConsistency,
		},
		{
			name:    "engine invariant",
			code:    CodeEngineInvariant,
			wantMsg: "Engine invariant violated",
			wantCat: CategoryEngine,
		},
		{
			name:    "unknown error code",
			code:    "T999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "passes %d out of range", -1)
	if err.Message != "passes -1 out of range" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "code only",
			err:  New(CodeUnbalancedFrame),
			want: "T003: Unbalanced tracking frame",
		},
		{
			name: "with subject and depth",
			err:  New(CodeBacktracking).WithSubject("count").WithDepth(2),
			want: "T002: Value changed after it was read in the same pass (tag count, frame depth 2)",
		},
		{
			name: "depth only",
			err:  New(CodeDirtyDuringTracking).WithDepth(1),
			want: "T001: Tag dirtied while a tracking frame was open (frame depth 1)",
		},
		{
			name: "no code",
			err:  &Error{Message: "test error"},
			want: "test error",
		},
		{
			name: "wrapped",
			err:  New(CodeInvalidConfig).Wrap(fmt.Errorf("bad yaml")),
			want: "T100: Invalid configuration: bad yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := New(CodeBacktracking).WithSubject("x")

	if !stderrors.Is(err, New(CodeBacktracking)) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New(CodeDirtyDuringTracking)) {
		t.Error("unrelated code should not match without Refines")
	}

	refined := New(CodeBacktracking).Refines(CodeDirtyDuringTracking)
	if !stderrors.Is(refined, New(CodeDirtyDuringTracking)) {
		t.Error("refined error should match the refined code")
	}

	wrapped := fmt.Errorf("pass failed: %w", err)
	if !stderrors.Is(wrapped, New(CodeBacktracking)) {
		t.Error("errors.Is should see through fmt wrapping")
	}

	if stderrors.Is(err, &Error{Message: "no code"}) {
		t.Error("a target without a code never matches")
	}
}

func TestError_Builders(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := New(CodeCycle).
		WithSuggestion("break the loop").
		WithDetail("Custom detail").
		Wrap(inner)

	if err.Suggestion != "break the loop" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
	if err.Detail != "Custom detail" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeInvalidConfig) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	te := New(CodeCycle)
	if FromError(te, CodeInvalidConfig) != te {
		t.Error("FromError should return *Error as-is")
	}

	stdErr := &testError{msg: "test error"}
	result := FromError(stdErr, CodeInvalidConfig)
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Code != CodeInvalidConfig {
		t.Errorf("Code = %q, want %q", result.Code, CodeInvalidConfig)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New(CodeBacktracking).
		WithSubject("todos[3]").
		WithDepth(2)

	formatted := err.Format()

	for _, want := range []string{
		"T002",
		"Value changed after it was read in the same pass",
		"tag todos[3] at frame depth 2",
		"Hint:",
		"Learn more:",
	} {
		if !strings.Contains(formatted, want) {
			t.Errorf("Format should contain %q, got:\n%s", want, formatted)
		}
	}
}

func TestPrintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	PrintError(&buf, New(CodeCycle))
	if !strings.Contains(buf.String(), "ERROR T004") {
		t.Errorf("PrintError output = %q", buf.String())
	}

	buf.Reset()
	PrintError(&buf, fmt.Errorf("plain"))
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("PrintError plain output = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("GetAllCodes() should return codes")
	}
	if codes[0] != CodeDirtyDuringTracking {
		t.Errorf("codes should be sorted, first = %q", codes[0])
	}
}

func TestGetTemplate(t *testing.T) {
	template, ok := GetTemplate(CodeUnbalancedFrame)
	if !ok {
		t.Fatal("T003 should exist")
	}
	if template.Message != "Unbalanced tracking frame" {
		t.Error("Template message mismatch")
	}

	if _, ok := GetTemplate("T999"); ok {
		t.Error("T999 should not exist")
	}
}

func TestRegister(t *testing.T) {
	Register("T999", ErrorTemplate{
		Category: CategoryEngine,
		Message:  "Custom test error",
	})
	defer delete(registry, "T999")

	err := New("T999")
	if err.Message != "Custom test error" {
		t.Errorf("Message = %q, want %q", err.Message, "Custom test error")
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("short text", 100)
	if len(got) != 1 || got[0] != "short text" {
		t.Errorf("wrapText short text: got %v", got)
	}

	got = wrapText("this is a longer text that should be wrapped", 20)
	if len(got) != 3 {
		t.Errorf("wrapText long text: expected 3 lines, got %d: %v", len(got), got)
	}

	got = wrapText("", 10)
	if len(got) != 0 {
		t.Errorf("wrapText empty: expected empty, got %v", got)
	}
}

func TestColorFunctions(t *testing.T) {
	EnableColors()
	if !strings.Contains(red("test"), "\033[31m") {
		t.Error("red should contain ANSI code when colors enabled")
	}

	DisableColors()
	if strings.Contains(red("test"), "\033[") {
		t.Error("red should not contain ANSI code when colors disabled")
	}
	EnableColors()
}
