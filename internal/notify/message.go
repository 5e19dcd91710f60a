package notify

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Message is a composed free-text alert.
type Message struct {
	To      string
	Subject string
	Body    string
}

// ComposeMessage renders the alert text. Fails with ErrInvalidAddress when
// the destination is not a single mail address.
func ComposeMessage(a Alert) (Message, error) {
	addr, err := mail.ParseAddress(a.Address)
	if err != nil || !strings.Contains(addr.Address, "@") {
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidAddress, a.Address)
	}

	manager := a.Manager
	if manager == "" {
		manager = "Unknown"
	}

	var b strings.Builder
	fmt.Fprintln(&b, "CPU Usage Alert - SNMP Agent")
	fmt.Fprintf(&b, "Current CPU Usage: %d%%\n", a.Measurement)
	fmt.Fprintf(&b, "Configured Threshold: %d%%\n", a.Threshold)
	fmt.Fprintf(&b, "Manager: %s\n", manager)
	fmt.Fprintf(&b, "Email: %s\n", addr.Address)
	fmt.Fprintf(&b, "Timestamp: %s\n", a.At.Format(time.DateTime))
	if a.ID != "" {
		fmt.Fprintf(&b, "Alert ID: %s\n", a.ID)
	}
	fmt.Fprintln(&b, "This is an automated notification.")

	return Message{
		To:      addr.Address,
		Subject: fmt.Sprintf("CPU Alert: %d%% exceeds %d%%", a.Measurement, a.Threshold),
		Body:    b.String(),
	}, nil
}
