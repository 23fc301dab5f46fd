package rules

import (
	"github.com/taintgraph/droidtaint/internal/config"
)

// IntentRoute describes one Android component-routing heuristic: a
// method that hands data to another component (an implicit or explicit
// Intent dispatch) along with which of its arguments/extras carry
// attacker-reachable data and which access path on the *receiving* side
// that data reappears at (spec.md §9 Open Question ii, resolved as
// data-driven rather than hardcoded string matching).
type IntentRoute struct {
	Method       string `json:"method"`        // e.g. "Landroid/content/Intent;.putExtra"
	CarrierArg   int    `json:"carrier_arg"`    // index of the argument holding the payload
	ExtraKeyArg  int    `json:"extra_key_arg"`  // index of the argument naming the extra, -1 if unnamed
	ReceiverPort string `json:"receiver_port"` // access path the payload surfaces at on the receiving component, e.g. ".getIntent().getExtras()"
}

// IntentRoutingCatalog is the data-driven replacement for a hardcoded
// set of intent-routing string patterns. Grounded on
// internal/capability/patterns.go's importPatterns/callPatterns map
// literals, generalized from "import path -> capabilities" to
// "method signature -> routing description".
type IntentRoutingCatalog struct {
	routes map[string]IntentRoute
}

// LoadIntentRoutingCatalog decodes a JSON array of IntentRoute entries.
func LoadIntentRoutingCatalog(data []byte, strict bool) (*IntentRoutingCatalog, error) {
	var raw []IntentRoute
	if err := config.DecodeJSON(data, &raw, strict); err != nil {
		return nil, err
	}
	c := &IntentRoutingCatalog{routes: make(map[string]IntentRoute, len(raw))}
	for _, r := range raw {
		c.routes[r.Method] = r
	}
	return c, nil
}

// Lookup returns the routing description for a fully-qualified method
// signature, if the catalog has one.
func (c *IntentRoutingCatalog) Lookup(method string) (IntentRoute, bool) {
	if c == nil {
		return IntentRoute{}, false
	}
	r, ok := c.routes[method]
	return r, ok
}

// DefaultIntentRoutingCatalog ships the handful of Android SDK routing
// methods worth knowing about out of the box, mirroring the teacher's
// built-in importPatterns/callPatterns maps before any user-supplied
// catalog is layered on top.
var DefaultIntentRoutingCatalog = &IntentRoutingCatalog{
	routes: map[string]IntentRoute{
		"Landroid/content/Intent;.putExtra": {
			Method: "Landroid/content/Intent;.putExtra", CarrierArg: 2, ExtraKeyArg: 1,
			ReceiverPort: ".getIntent().getExtras()",
		},
		"Landroid/os/Bundle;.putString": {
			Method: "Landroid/os/Bundle;.putString", CarrierArg: 2, ExtraKeyArg: 1,
			ReceiverPort: ".getExtras()",
		},
		"Landroid/content/Context;.startActivity": {
			Method: "Landroid/content/Context;.startActivity", CarrierArg: 1, ExtraKeyArg: -1,
			ReceiverPort: ".getIntent()",
		},
		"Landroid/content/Context;.sendBroadcast": {
			Method: "Landroid/content/Context;.sendBroadcast", CarrierArg: 1, ExtraKeyArg: -1,
			ReceiverPort: ".getIntent()",
		},
	},
}
