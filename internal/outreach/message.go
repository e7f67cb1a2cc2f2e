// Package outreach sends finalized drafts through a mail transport and
// records confirmed sends on the lead.
package outreach

import (
	"bytes"
	"encoding/base64"
	"html"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"
)

// Message is one outbound email. Body is plain text.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// HTMLBody escapes the plain-text body and converts newlines to <br>.
// Drafts are plain text, so markup in a draft is sent as literal text
// rather than rendered.
func HTMLBody(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
}

// compose builds the MIME message. Headers and body are base64 encoded so
// non-ASCII subjects survive as RFC 2047 encoded words.
func compose(msg Message) *gomail.Message {
	m := gomail.NewMessage(gomail.SetEncoding(gomail.Base64))
	if msg.From != "" {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", HTMLBody(msg.Body))
	return m
}

// BuildRaw renders msg as an RFC 2822 message encoded with unpadded
// base64url, the form the Gmail send API expects in its raw field.
func BuildRaw(msg Message) (string, error) {
	var buf bytes.Buffer
	if _, err := compose(msg).WriteTo(&buf); err != nil {
		return "", eris.Wrap(err, "outreach: render message")
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}
