package ws

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseControlMessageActions(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		action string
		cityID int64
	}{
		{"authenticate", `{"action":"authenticate","token":"abc"}`, actionAuthenticate, 0},
		{"subscribe city number", `{"action":"subscribe_city","city_id":804}`, actionSubscribeCity, 804},
		{"subscribe city numeric string", `{"action":"subscribe_city","city_id":"804"}`, actionSubscribeCity, 804},
		{"subscribe all", `{"action":"subscribe_all"}`, actionSubscribeAll, 0},
		{"unsubscribe", `{"action":"unsubscribe"}`, actionUnsubscribe, 0},
		{"ping", `{"action":"ping"}`, actionPing, 0},
		{"get current locations", `{"action":"get_current_locations"}`, actionGetCurrentLocations, 0},
		{"mixed case action", `{"action":" Ping "}`, actionPing, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, perr := parseControlMessage([]byte(tc.raw))
			if perr != nil {
				t.Fatalf("parse error: %v", perr)
			}
			if msg.Action != tc.action {
				t.Fatalf("action = %q, want %q", msg.Action, tc.action)
			}
			if msg.CityID != tc.cityID {
				t.Fatalf("city id = %d, want %d", msg.CityID, tc.cityID)
			}
		})
	}
}

func TestParseControlMessageRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"action":`},
		{"missing action", `{"token":"abc"}`},
		{"unknown action", `{"action":"teleport"}`},
		{"missing city id", `{"action":"subscribe_city"}`},
		{"zero city id", `{"action":"subscribe_city","city_id":0}`},
		{"negative city id", `{"action":"subscribe_city","city_id":-1}`},
		{"non numeric city id", `{"action":"subscribe_city","city_id":"lagos"}`},
		{"fractional city id", `{"action":"subscribe_city","city_id":8.04}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, perr := parseControlMessage([]byte(tc.raw)); perr == nil {
				t.Fatalf("expected rejection for %s", tc.raw)
			}
		})
	}
}

func TestUnknownActionErrorNamesAction(t *testing.T) {
	_, perr := parseControlMessage([]byte(`{"action":"teleport"}`))
	if perr == nil || !strings.Contains(perr.Error(), "teleport") {
		t.Fatalf("error should name the offending action, got %v", perr)
	}
}

func TestLocationsPayloadShape(t *testing.T) {
	payload, err := locationsPayload(804, locs(3))
	if err != nil {
		t.Fatalf("locations payload: %v", err)
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, field := range []string{"type", "data", "timestamp"} {
		if _, ok := env[field]; !ok {
			t.Fatalf("envelope missing %q: %s", field, payload)
		}
	}

	var data struct {
		Locations []json.RawMessage `json:"locations"`
		Topic     int64             `json:"topic"`
		Count     int               `json:"count"`
	}
	if err := json.Unmarshal(env["data"], &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if len(data.Locations) != 3 || data.Count != 3 || data.Topic != 804 {
		t.Fatalf("unexpected data: %s", env["data"])
	}
}

func TestErrorPayloadUsesMessageField(t *testing.T) {
	var env struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(errorPayload("bad thing"), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != "error" || env.Message != "bad thing" {
		t.Fatalf("unexpected error envelope: %+v", env)
	}
}
