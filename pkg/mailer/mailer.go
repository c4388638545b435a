package mailer

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// Message is a single outbound notification email.
type Message struct {
	To          string
	ToName      string
	Subject     string
	Title       string
	Body        string
	ActionURL   string
	ActionLabel string
	Priority    string
}

// Mailer delivers notification emails. Delivery is best-effort; callers
// must not treat a send failure as a reason to roll back state.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// RenderText produces the plain-text body for a message.
func RenderText(msg Message) string {
	b := &strings.Builder{}
	if msg.Title != "" {
		fmt.Fprintf(b, "%s\n\n", msg.Title)
	}
	b.WriteString(msg.Body)
	if msg.ActionURL != "" {
		label := msg.ActionLabel
		if label == "" {
			label = "Open"
		}
		fmt.Fprintf(b, "\n\n%s: %s", label, msg.ActionURL)
	}
	return b.String()
}

// RenderHTML produces a minimal HTML body for a message.
func RenderHTML(msg Message) string {
	b := &strings.Builder{}
	b.WriteString("<html><body>")
	if msg.Title != "" {
		fmt.Fprintf(b, "<h2>%s</h2>", html.EscapeString(msg.Title))
	}
	fmt.Fprintf(b, "<p>%s</p>", html.EscapeString(msg.Body))
	if msg.ActionURL != "" {
		label := msg.ActionLabel
		if label == "" {
			label = "Open"
		}
		fmt.Fprintf(b, `<p><a href="%s">%s</a></p>`, msg.ActionURL, html.EscapeString(label))
	}
	b.WriteString("</body></html>")
	return b.String()
}
