package dispatch

import (
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Notifier delivers reminder messages to the user's phone.
type Notifier interface {
	Send(body string) error
}

// WhatsAppNotifier sends messages over Twilio's WhatsApp API to a single
// configured recipient.
type WhatsAppNotifier struct {
	client    *twilio.RestClient
	from      string
	recipient string
}

// NewWhatsAppNotifier creates a Twilio-backed notifier, or nil when the
// credentials are incomplete.
func NewWhatsAppNotifier(accountSID, authToken, from, recipient string) *WhatsAppNotifier {
	if accountSID == "" || authToken == "" || from == "" || recipient == "" {
		return nil
	}
	return &WhatsAppNotifier{
		client:    twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		from:      from,
		recipient: recipient,
	}
}

// Send delivers one WhatsApp message to the configured recipient.
func (n *WhatsAppNotifier) Send(body string) error {
	sender := normalizeWhatsAppAddress(n.from)
	if sender == "" {
		return fmt.Errorf("twilio sender WhatsApp number is not configured")
	}
	recipient := normalizeWhatsAppAddress(n.recipient)
	if recipient == "" {
		return fmt.Errorf("recipient number missing or invalid")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	return nil
}

func normalizeWhatsAppAddress(number string) string {
	trimmed := strings.TrimSpace(number)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "whatsapp:") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "+") {
		return "whatsapp:" + trimmed
	}
	return "whatsapp:+" + trimmed
}
