// Package text provides normalisation and light validation for contact-form input.
package text

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxMessageLength caps the stored length of a contact message in runes
	MaxMessageLength = 5000
	// MaxEmailLength is the longest address accepted (RFC 5321 path limit)
	MaxEmailLength = 254
)

var (
	inlineSpaceRegex = regexp.MustCompile(`[ \t\f\v]+`)
	blankLinesRegex  = regexp.MustCompile(`\n{3,}`)
)

type ContactParser struct{}

func NewContactParser() *ContactParser {
	return &ContactParser{}
}

// NormalizeMessage applies NFKC, trims every line, collapses runs of inline
// whitespace and keeps at most one blank line between paragraphs.
func (p *ContactParser) NormalizeMessage(message string) string {
	message = norm.NFKC.String(message)
	message = strings.ReplaceAll(message, "\r\n", "\n")
	message = strings.ReplaceAll(message, "\r", "\n")

	lines := strings.Split(message, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpaceRegex.ReplaceAllString(line, " "))
	}
	message = strings.Join(lines, "\n")
	message = blankLinesRegex.ReplaceAllString(message, "\n\n")
	message = strings.TrimSpace(message)

	if runes := []rune(message); len(runes) > MaxMessageLength {
		message = string(runes[:MaxMessageLength])
	}

	return message
}

// NormalizeEmail trims and NFKC-normalises an address without changing its case.
func (p *ContactParser) NormalizeEmail(email string) string {
	return strings.TrimSpace(norm.NFKC.String(email))
}

// NormalizeSource returns the trimmed source tag, or fallback when empty.
func (p *ContactParser) NormalizeSource(source, fallback string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return fallback
	}
	return source
}

// IsEmail reports whether email is a bare local@domain.tld address.
func (p *ContactParser) IsEmail(email string) bool {
	if email == "" || len(email) > MaxEmailLength {
		return false
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return false
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

// Key builds a case-insensitive identity for a submission, used to spot resends.
func (p *ContactParser) Key(email, message string) string {
	fold := cases.Fold()
	return fold.String(email) + "\x00" + fold.String(message)
}
