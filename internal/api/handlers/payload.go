package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	defaultConversationID = "default-conv"
	defaultTextMessage    = "Hello"
	defaultObjectMessage  = "Hello, how can I help you?"
	derivedIDModulus      = 100000
)

// Field aliases accepted from the various callers, in priority order
var (
	conversationIDAliases = []string{"conversation_id", "conversationId", "session_id", "sessionId", "id"}
	messageAliases        = []string{
		"message", "text", "content", "msg", "body",
		"input", "query", "user_message", "scam_message", "data",
	}
)

// InboundRequest is the normalized form of a /honeypot request body
type InboundRequest struct {
	ConversationID string
	Message        string
}

// ParseInbound accepts a JSON object, a JSON string, plain text or nothing,
// and never fails. Missing fields get defaults.
func ParseInbound(raw []byte) InboundRequest {
	if len(bytes.TrimSpace(raw)) == 0 {
		return InboundRequest{ConversationID: defaultConversationID, Message: defaultTextMessage}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil || dec.More() {
		return parseText(raw)
	}

	switch v := body.(type) {
	case string:
		return textRequest(v)
	case map[string]any:
		return objectRequest(v, raw)
	default:
		return InboundRequest{ConversationID: defaultConversationID, Message: defaultTextMessage}
	}
}

func parseText(raw []byte) InboundRequest {
	s := string(raw)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return textRequest(s)
}

func textRequest(s string) InboundRequest {
	if strings.TrimSpace(s) == "" {
		s = defaultTextMessage
	}
	return InboundRequest{ConversationID: defaultConversationID, Message: s}
}

func objectRequest(body map[string]any, raw []byte) InboundRequest {
	id, ok := firstPresent(body, conversationIDAliases)
	if !ok {
		id = derivedConversationID(raw)
	}
	message, ok := firstPresent(body, messageAliases)
	if !ok {
		message = defaultObjectMessage
	}
	return InboundRequest{ConversationID: id, Message: message}
}

// firstPresent returns the first alias holding a non-empty value
func firstPresent(body map[string]any, aliases []string) (string, bool) {
	for _, key := range aliases {
		v, ok := body[key]
		if !ok || isEmptyValue(v) {
			continue
		}
		return stringify(v), true
	}
	return "", false
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// derivedConversationID gives bodies without an id a stable session of their own
func derivedConversationID(raw []byte) string {
	h := fnv.New32a()
	h.Write(raw)
	return fmt.Sprintf("conv-%d", h.Sum32()%derivedIDModulus)
}
