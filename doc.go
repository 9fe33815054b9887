// Package smsrelay forwards inbound text messages to an email inbox.
//
// Every message posted to the relay is checked against the relay rules,
// handed to the active mail transport when a rule admits it, and recorded in
// the message history together with its delivery status. The relay can be
// embedded as a library or run as the smsrelay service binary.
//
// Key features:
//   - Sender and keyword relay rules with first-match-wins evaluation
//   - A single authoritative transport configuration, replaced atomically
//   - SMTP delivery over STARTTLS or implicit TLS with a bounded timeout
//   - Message history and forwarding statistics
//   - Pluggable stores (MongoDB, PostgreSQL, Redis, Memory)
//
// Quick start:
//
//	r, err := smsrelay.New(
//	    smsrelay.WithStore(memory.New()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = r.Transport().Save(ctx, transport.Input{
//	    Kind:      transport.KindSMTP,
//	    Host:      "smtp.example.com",
//	    Username:  "relay@example.com",
//	    Password:  "app-password",
//	    Recipient: "me@example.com",
//	})
//
//	res, err := r.Forward(ctx, "+15550100", "Your code is 1234", time.Time{})
package smsrelay
