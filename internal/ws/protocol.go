package ws

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	riderdomain "github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
)

const (
	actionAuthenticate        = "authenticate"
	actionSubscribeCity       = "subscribe_city"
	actionSubscribeAll        = "subscribe_all"
	actionUnsubscribe         = "unsubscribe"
	actionPing                = "ping"
	actionGetCurrentLocations = "get_current_locations"
)

const (
	typeAuthenticated  = "authenticated"
	typePong           = "pong"
	typeStatus         = "status"
	typeError          = "error"
	typeRiderLocations = "rider_locations"
)

type protocolError struct {
	msg string
}

func (e *protocolError) Error() string { return e.msg }

// controlMessage is the parsed form of one inbound client frame. Parsing
// rejects unknown shapes up front so dispatch only ever sees a valid action.
type controlMessage struct {
	Action string
	Token  string
	CityID int64
}

type wireMessage struct {
	Action string          `json:"action"`
	Token  string          `json:"token"`
	CityID json.RawMessage `json:"city_id"`
}

func parseControlMessage(raw []byte) (*controlMessage, *protocolError) {
	var wire wireMessage
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &protocolError{msg: "malformed message"}
	}

	msg := &controlMessage{
		Action: strings.ToLower(strings.TrimSpace(wire.Action)),
		Token:  wire.Token,
	}

	switch msg.Action {
	case actionAuthenticate, actionSubscribeAll, actionUnsubscribe, actionPing, actionGetCurrentLocations:
		return msg, nil
	case actionSubscribeCity:
		cityID, err := parseCityID(wire.CityID)
		if err != nil {
			return nil, err
		}
		msg.CityID = cityID
		return msg, nil
	case "":
		return nil, &protocolError{msg: "missing action"}
	default:
		return nil, &protocolError{msg: fmt.Sprintf("unknown action %q", msg.Action)}
	}
}

// parseCityID accepts a JSON number or a numeric string; anything else, or a
// non-positive value, is a protocol error.
func parseCityID(raw json.RawMessage) (int64, *protocolError) {
	invalid := &protocolError{msg: "city_id must be a positive integer"}
	if len(raw) == 0 {
		return 0, invalid
	}

	var asNumber int64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		if asNumber <= 0 {
			return 0, invalid
		}
		return asNumber, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return 0, invalid
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(asString), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, invalid
	}
	return parsed, nil
}

type envelope struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func marshalEnvelope(typ string, data any, message string) []byte {
	payload, _ := json.Marshal(envelope{
		Type:      typ,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return payload
}

func errorPayload(message string) []byte {
	return marshalEnvelope(typeError, nil, message)
}

func statusPayload(message string) []byte {
	return marshalEnvelope(typeStatus, nil, message)
}

func pongPayload() []byte {
	return marshalEnvelope(typePong, nil, "pong")
}

func authenticatedPayload(tenantID int64) []byte {
	return marshalEnvelope(typeAuthenticated, map[string]int64{"tenant_id": tenantID}, "")
}

type locationsData struct {
	Locations []riderdomain.Location `json:"locations"`
	Topic     int64                  `json:"topic"`
	Count     int                    `json:"count"`
}

func locationsPayload(cityID int64, locations []riderdomain.Location) ([]byte, error) {
	payload, err := json.Marshal(envelope{
		Type: typeRiderLocations,
		Data: locationsData{
			Locations: locations,
			Topic:     cityID,
			Count:     len(locations),
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rider_locations envelope: %w", err)
	}
	return payload, nil
}
