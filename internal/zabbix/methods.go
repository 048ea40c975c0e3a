package zabbix

import (
	"encoding/json"
	"fmt"
)

// method describes how one API method is requested and checked.
type method struct {
	// anonymous methods are sent without an auth member at all.
	anonymous      bool
	validateParams func(params interface{}) error
	validateResult func(result json.RawMessage) error
}

var methods = map[string]method{
	"apiinfo.version": {anonymous: true},
	"user.login":      {},
	"user.logout":     {validateResult: requireTrue},
	"event.get":       {validateParams: requireTimeframe(false)},
	"problem.get":     {validateParams: requireTimeframe(true)},
	"trigger.get":     {},
}

func lookupMethod(name string) (method, error) {
	m, ok := methods[name]
	if !ok {
		return method{}, fmt.Errorf("unsupported API method %q", name)
	}
	return m, nil
}

// requireTimeframe accepts params that bound the query by event ids, an
// event id range or a time range. problem.get also accepts recent.
func requireTimeframe(allowRecent bool) func(interface{}) error {
	return func(params interface{}) error {
		p, ok := params.(Params)
		if !ok {
			return fmt.Errorf("%w: params must be an object, got %T", ErrInvalidParameters, params)
		}
		has := func(key string) bool {
			_, ok := p[key]
			return ok
		}
		switch {
		case has("eventids"):
		case has("eventid_from") && has("eventid_till"):
		case has("time_from") && has("time_till"):
		case allowRecent && has("recent"):
		default:
			return fmt.Errorf("%w: no timeframe defined (eventids, eventid_from/eventid_till or time_from/time_till)", ErrInvalidParameters)
		}
		return nil
	}
}

func requireTrue(result json.RawMessage) error {
	var ok bool
	if err := json.Unmarshal(result, &ok); err != nil || !ok {
		return ErrLogout
	}
	return nil
}
