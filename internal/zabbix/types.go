package zabbix

import "encoding/json"

// Params is the params object of a JSON-RPC request.
type Params map[string]interface{}

// Tag is an event or trigger tag
type Tag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// Event represents a Zabbix event as returned by event.get or problem.get.
// Optional fields are pointers so a missing key can be told apart from an
// empty value: event.get sets REventID, problem.get sets RClock.
type Event struct {
	EventID      string  `json:"eventid"`
	Source       string  `json:"source"`
	Object       string  `json:"object"`
	ObjectID     string  `json:"objectid"`
	Clock        string  `json:"clock"`
	Name         string  `json:"name"`
	Severity     string  `json:"severity"`
	Acknowledged *string `json:"acknowledged,omitempty"`
	RClock       *string `json:"r_clock,omitempty"`
	REventID     *string `json:"r_eventid,omitempty"`
	Tags         []Tag   `json:"tags,omitempty"`
}

// TriggerSourced reports whether the event was generated by a trigger
// (source 0, object 0) with a real trigger id.
func (e *Event) TriggerSourced() bool {
	return e.Source == "0" && e.Object == "0" && e.ObjectID != "0"
}

// HostRef is a host as nested in trigger.get output
type HostRef struct {
	HostID string `json:"hostid"`
	Name   string `json:"name"`
}

// GroupRef is a host group as nested in trigger.get output
type GroupRef struct {
	GroupID string `json:"groupid"`
	Name    string `json:"name"`
}

// Trigger represents a Zabbix trigger with its hosts and groups.
// Zabbix 6.2 renamed the nested groups to hostgroups; use HostGroups().
type Trigger struct {
	TriggerID     string     `json:"triggerid"`
	Description   string     `json:"description"`
	TemplateID    string     `json:"templateid"`
	Priority      string     `json:"priority"`
	Hosts         []HostRef  `json:"hosts,omitempty"`
	Groups        []GroupRef `json:"groups,omitempty"`
	HostGroupList []GroupRef `json:"hostgroups,omitempty"`
	Tags          []Tag      `json:"tags,omitempty"`
}

// HostGroups returns the trigger's host groups regardless of API version.
func (t *Trigger) HostGroups() []GroupRef {
	if len(t.HostGroupList) > 0 {
		return t.HostGroupList
	}
	return t.Groups
}

// Request is a JSON-RPC request body. Auth is a pointer so that it
// serializes as null before login.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	Auth    *string     `json:"auth"`
	ID      int         `json:"id"`
}

// anonymousRequest has no auth member. It is used for methods that reject
// one and for servers that take the token in the Authorization header.
type anonymousRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

// APIResponse represents a generic Zabbix API response. Result stays raw so
// its presence can be checked before decoding.
type APIResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// APIError represents a Zabbix API error
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	return e.Message + ": " + e.Data
}
