package zabbix

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetEvents calls event.get. params must bound the query, see methods.go.
func (c *Client) GetEvents(ctx context.Context, params Params) ([]Event, error) {
	result, err := c.call(ctx, "event.get", params)
	if err != nil {
		return nil, err
	}
	return decodeResult[[]Event](result, "events")
}

// GetProblems calls problem.get.
func (c *Client) GetProblems(ctx context.Context, params Params) ([]Event, error) {
	result, err := c.call(ctx, "problem.get", params)
	if err != nil {
		return nil, err
	}
	return decodeResult[[]Event](result, "problems")
}

// GetEventClock returns the clock of a single event, used to resolve the
// recovery time of historical events.
func (c *Client) GetEventClock(ctx context.Context, eventID string) (string, error) {
	events, err := c.GetEvents(ctx, Params{
		"eventids": []string{eventID},
		"output":   []string{"eventid", "clock"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get event %s: %w", eventID, err)
	}
	if len(events) == 0 {
		return "", fmt.Errorf("event not found: %s", eventID)
	}
	return events[0].Clock, nil
}

// GetTrigger returns the trigger with its hosts, host groups and tags, or
// nil when the id matches no trigger.
func (c *Client) GetTrigger(ctx context.Context, triggerID string) (*Trigger, error) {
	params := Params{
		"triggerids":  triggerID,
		"output":      []string{"triggerid", "description", "templateid", "priority"},
		"selectHosts": []string{"hostid", "name"},
		"selectTags":  "extend",
	}
	// Zabbix 6.2 split host groups from template groups.
	if c.getAPIVersionFloat() >= 6.2 {
		params["selectHostGroups"] = []string{"groupid", "name"}
	} else {
		params["selectGroups"] = []string{"groupid", "name"}
	}

	result, err := c.call(ctx, "trigger.get", params)
	if err != nil {
		return nil, fmt.Errorf("failed to get trigger %s: %w", triggerID, err)
	}

	triggers, err := decodeResult[[]Trigger](result, "triggers")
	if err != nil {
		return nil, err
	}
	if len(triggers) == 0 {
		return nil, nil
	}
	return &triggers[0], nil
}

func decodeResult[T any](result json.RawMessage, what string) (T, error) {
	var v T
	if err := json.Unmarshal(result, &v); err != nil {
		return v, fmt.Errorf("failed to parse %s: %w", what, err)
	}
	return v, nil
}
