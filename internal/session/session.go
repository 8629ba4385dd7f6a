// Package session generates the per-connection correlation ID attached to
// every log line a connection record produces. It is purely an ambient
// logging aid: the ID never appears on the wire and plays no part in the
// protocol FSM.
package session

import (
	"github.com/rs/xid"
)

// NewID returns a short, sortable, globally-unique correlation ID for a
// freshly created connection record.
func NewID() string {
	return xid.New().String()
}
