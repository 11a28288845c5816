package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MessageRecord is the normalized shape every archive-search and trace
// result is flattened into. It is built once per raw provider record and
// not modified afterwards.
type MessageRecord struct {
	ID           string
	Subject      string
	FromHeader   Address
	FromEnvelope Address
	// Deliveries holds one outcome per recipient, in the order the
	// provider listed them.
	Deliveries []Delivery
	Sent       time.Time
	Received   time.Time
	Route      string
	Status     string
	Size       int64
	// Events is the message's processing-event list, in provider order.
	Events []ProcessingEvent
	// PolicyMatches collects every recipient's policy matches into one
	// list; originating recipient context is implied by encounter order.
	PolicyMatches []PolicyMatch
}

// Address is a display name and email address pair.
type Address struct {
	Name    string
	Address string
}

// Delivery is one recipient's delivery outcome.
type Delivery struct {
	Address string
	Status  string
	Detail  string
}

// ProcessingEvent is one step of the message's processing history.
type ProcessingEvent struct {
	Type      string
	Detail    string
	Timestamp time.Time
}

// PolicyMatch is one policy that acted on the message for some recipient.
type PolicyMatch struct {
	Name   string
	Action string
}

// rawAddress is the provider's address pair.
type rawAddress struct {
	DisplayableName string `json:"displayableName"`
	EmailAddress    string `json:"emailAddress"`
}

func (a *rawAddress) toAddress() Address {
	if a == nil {
		return Address{}
	}
	return Address{Name: a.DisplayableName, Address: a.EmailAddress}
}

// rawEvent is the provider's processing-event shape.
type rawEvent struct {
	Type      string `json:"type"`
	Detail    string `json:"detail"`
	Timestamp string `json:"timestamp"`
}

// rawPolicyMatch is the provider's policy-match shape.
type rawPolicyMatch struct {
	Name   string `json:"name"`
	Action string `json:"action"`
}

// rawDelivery is one entry of the trace record's per-recipient delivery map.
type rawDelivery struct {
	Status        string           `json:"status"`
	Detail        string           `json:"detail"`
	PolicyMatches []rawPolicyMatch `json:"policyMatches"`
}

// rawTraceMessage is a raw message-trace record. DeliveredMessage is kept
// raw because it is a JSON object keyed by recipient address whose key
// order must be preserved.
type rawTraceMessage struct {
	ID               string          `json:"id"`
	Subject          string          `json:"subject"`
	FromHeader       *rawAddress     `json:"fromHeader"`
	FromEnvelope     *rawAddress     `json:"fromEnvelope"`
	Sent             string          `json:"sent"`
	Received         string          `json:"received"`
	Route            string          `json:"route"`
	Status           string          `json:"status"`
	Size             int64           `json:"size"`
	ProcessingEvents []rawEvent      `json:"processingEvents"`
	DeliveredMessage json.RawMessage `json:"deliveredMessage"`
}

// FlattenTrace normalizes one raw trace record: the nested per-recipient
// delivery map becomes an ordered delivery list, and each recipient's
// policy matches are appended to a single ordered list.
func FlattenTrace(raw json.RawMessage) (MessageRecord, error) {
	var msg rawTraceMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return MessageRecord{}, fmt.Errorf("decode trace record: %w", err)
	}

	record := MessageRecord{
		ID:           msg.ID,
		Subject:      msg.Subject,
		FromHeader:   msg.FromHeader.toAddress(),
		FromEnvelope: msg.FromEnvelope.toAddress(),
		Sent:         parseTimestamp(msg.Sent),
		Received:     parseTimestamp(msg.Received),
		Route:        msg.Route,
		Status:       msg.Status,
		Size:         msg.Size,
	}

	for _, ev := range msg.ProcessingEvents {
		record.Events = append(record.Events, ProcessingEvent{
			Type:      ev.Type,
			Detail:    ev.Detail,
			Timestamp: parseTimestamp(ev.Timestamp),
		})
	}

	if len(msg.DeliveredMessage) > 0 {
		err := walkOrderedObject(msg.DeliveredMessage, func(recipient string, value json.RawMessage) error {
			var delivery rawDelivery
			if err := json.Unmarshal(value, &delivery); err != nil {
				return fmt.Errorf("decode delivery for %s: %w", recipient, err)
			}
			record.Deliveries = append(record.Deliveries, Delivery{
				Address: recipient,
				Status:  delivery.Status,
				Detail:  delivery.Detail,
			})
			for _, pm := range delivery.PolicyMatches {
				record.PolicyMatches = append(record.PolicyMatches, PolicyMatch(pm))
			}
			return nil
		})
		if err != nil {
			return MessageRecord{}, err
		}
	}

	return record, nil
}

// rawArchiveMessage is a raw archive-search record.
type rawArchiveMessage struct {
	ID       string       `json:"id"`
	Subject  string       `json:"subject"`
	From     *rawAddress  `json:"from"`
	To       []rawAddress `json:"to"`
	Received string       `json:"receiveddate"`
	Size     int64        `json:"size"`
	Status   string       `json:"status"`
	Route    string       `json:"route"`
}

// FlattenArchive normalizes one raw archive-search record. The archive has
// no per-recipient outcome detail, so each recipient inherits the
// top-level status.
func FlattenArchive(raw json.RawMessage) (MessageRecord, error) {
	var msg rawArchiveMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return MessageRecord{}, fmt.Errorf("decode archive record: %w", err)
	}

	record := MessageRecord{
		ID:         msg.ID,
		Subject:    msg.Subject,
		FromHeader: msg.From.toAddress(),
		Received:   parseTimestamp(msg.Received),
		Size:       msg.Size,
		Status:     msg.Status,
		Route:      msg.Route,
	}
	for _, to := range msg.To {
		record.Deliveries = append(record.Deliveries, Delivery{
			Address: to.EmailAddress,
			Status:  msg.Status,
		})
	}
	return record, nil
}

// walkOrderedObject visits the members of a JSON object in encounter
// order. Decoding into a map would lose the order, which the flattening
// contract guarantees, so the object is walked token by token instead.
func walkOrderedObject(raw json.RawMessage, visit func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("decode object: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode object key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode object key: unexpected token %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode object value for %q: %w", key, err)
		}
		if err := visit(key, value); err != nil {
			return err
		}
	}

	return nil
}

// parseTimestamp parses a provider timestamp, returning the zero time for
// absent or malformed values. The provider emits the no-colon offset form
// (wireTimeLayout); RFC 3339 is accepted too for endpoints that use it.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	t, err := time.Parse(wireTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
