package text

import (
	"strings"
	"testing"
)

// runStringTransformationTest is a helper to run tests for string transformation functions.
func runStringTransformationTest(t *testing.T, testName string,
	transformFunc func(string) string, testCases []struct {
		name     string
		input    string
		expected string
	}) {
	t.Helper()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := transformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", testName, result, tt.expected)
			}
		})
	}
}

// runBooleanTest is a helper to run tests for boolean functions.
func runBooleanTest(t *testing.T, testName string,
	testFunc func(string) bool, testCases []struct {
		name     string
		input    string
		expected bool
	}) {
	t.Helper()
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			result := testFunc(tt.input)
			if result != tt.expected {
				t.Errorf("%s() = %v, want %v", testName, result, tt.expected)
			}
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	parser := NewContactParser()

	runStringTransformationTest(t, "NormalizeMessage", parser.NormalizeMessage, []struct {
		name     string
		input    string
		expected string
	}{
		{"Trims surrounding whitespace", "  hello there  ", "hello there"},
		{"Collapses inline whitespace", "hello \t   there", "hello there"},
		{"Keeps single line breaks", "line one\nline two", "line one\nline two"},
		{"Normalises CRLF", "line one\r\nline two", "line one\nline two"},
		{"Collapses blank line runs", "para one\n\n\n\npara two", "para one\n\npara two"},
		{"Trims each line", "  one  \n  two  ", "one\ntwo"},
		{"Applies NFKC", "ｆｕｌｌｗｉｄｔｈ", "fullwidth"},
		{"Whitespace only becomes empty", " \n\t \n ", ""},
	})
}

func TestNormalizeMessage_Truncates(t *testing.T) {
	parser := NewContactParser()

	long := strings.Repeat("é", MaxMessageLength+10)
	result := parser.NormalizeMessage(long)

	if n := len([]rune(result)); n != MaxMessageLength {
		t.Errorf("NormalizeMessage() kept %d runes, want %d", n, MaxMessageLength)
	}
}

func TestNormalizeEmail(t *testing.T) {
	parser := NewContactParser()

	runStringTransformationTest(t, "NormalizeEmail", parser.NormalizeEmail, []struct {
		name     string
		input    string
		expected string
	}{
		{"Trims", "  me@example.com ", "me@example.com"},
		{"Keeps case", "Me@Example.com", "Me@Example.com"},
		{"Fullwidth at sign", "me＠example.com", "me@example.com"},
	})
}

func TestIsEmail(t *testing.T) {
	parser := NewContactParser()

	runBooleanTest(t, "IsEmail", parser.IsEmail, []struct {
		name     string
		input    string
		expected bool
	}{
		{"Plain address", "me@example.com", true},
		{"Subdomain", "first.last@mail.example.co.uk", true},
		{"Plus tag", "me+portfolio@example.com", true},
		{"Empty", "", false},
		{"No at sign", "example.com", false},
		{"No TLD", "me@localhost", false},
		{"Display name", "Me <me@example.com>", false},
		{"Trailing dot", "me@example.com.", false},
		{"Spaces", "me @example.com", false},
		{"Too long", strings.Repeat("a", MaxEmailLength) + "@example.com", false},
	})
}

func TestNormalizeSource(t *testing.T) {
	parser := NewContactParser()

	if got := parser.NormalizeSource("  ", "portfolio_v2"); got != "portfolio_v2" {
		t.Errorf("NormalizeSource() = %q, want fallback", got)
	}
	if got := parser.NormalizeSource(" footer ", "portfolio_v2"); got != "footer" {
		t.Errorf("NormalizeSource() = %q, want %q", got, "footer")
	}
}

func TestKey(t *testing.T) {
	parser := NewContactParser()

	if parser.Key("Me@Example.com", "Hello") != parser.Key("me@example.com", "hello") {
		t.Error("Key() should be case-insensitive")
	}
	if parser.Key("me@example.com", "hello") == parser.Key("me@example.com", "hello!") {
		t.Error("Key() should differ for different messages")
	}
	if parser.Key("a@b.co", "bc") == parser.Key("a@b.cob", "c") {
		t.Error("Key() should separate email and message")
	}
}
