package limesurvey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexString decodes a JSON string, number, or null into a Go string.
// The RemoteControl API is inconsistent about whether ids and counters
// come back as strings or numbers, so wire fields that may be either
// are declared as FlexString.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}

	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("unmarshal flex string: %w", err)
		}
		*s = FlexString(str)
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("unmarshal flex string: %w", err)
	}
	*s = FlexString(num.String())

	return nil
}

// Int returns the value as an integer, or def when the value is empty
// or not numeric.
func (s FlexString) Int(def int) int {
	if s == "" {
		return def
	}

	n, err := strconv.Atoi(string(s))
	if err != nil {
		return def
	}

	return n
}

// Survey is one record from list_surveys. StartDate and Expires are
// datetime strings ("2006-01-02 15:04:05") or empty when unset.
type Survey struct {
	SID       FlexString `json:"sid"`
	Title     string     `json:"surveyls_title"`
	Active    string     `json:"active"`
	StartDate FlexString `json:"startdate"`
	Expires   FlexString `json:"expires"`
}

// ParticipantInfo is the nested identity block of a participant record.
type ParticipantInfo struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

// Participant is one record from list_participants. Operator-configured
// extra attributes arrive as arbitrary top-level keys and are collected
// into Extra; known keys are lifted into typed fields.
type Participant struct {
	TID   string
	Token string
	Info  ParticipantInfo
	Extra map[string]string
}

// UnmarshalJSON collects unknown scalar fields into Extra so that
// operator-defined attributes (attribute_8, custom names) survive
// decoding without a fixed schema.
func (p *Participant) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal participant: %w", err)
	}

	p.Extra = make(map[string]string)

	for key, value := range raw {
		switch key {
		case "tid":
			var tid FlexString
			if err := tid.UnmarshalJSON(value); err != nil {
				return err
			}
			p.TID = string(tid)
		case "token":
			var token FlexString
			if err := token.UnmarshalJSON(value); err != nil {
				return err
			}
			p.Token = string(token)
		case "participant_info":
			if err := json.Unmarshal(value, &p.Info); err != nil {
				return fmt.Errorf("unmarshal participant_info: %w", err)
			}
		default:
			if s, ok := scalarString(value); ok {
				p.Extra[key] = s
			}
		}
	}

	return nil
}

// scalarString renders a raw JSON scalar as a string. Nulls, objects,
// and arrays report ok=false and are dropped from Extra.
func scalarString(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" || data[0] == '{' || data[0] == '[' {
		return "", false
	}

	var fs FlexString
	if err := fs.UnmarshalJSON(data); err != nil {
		return "", false
	}

	return string(fs), true
}

// rpcRequest is the JSON-RPC request envelope the RemoteControl API expects.
type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int    `json:"id"`
}

// rpcResponse is the JSON-RPC response envelope.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
	ID     int             `json:"id"`
}
