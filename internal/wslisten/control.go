package wslisten

import (
	"github.com/arghyadipchak/mssngr/internal/topicreg"
	"github.com/google/uuid"
)

// controlMessage is the tagged-JSON shape of every inbound frame a
// subscriber may send once connected (spec.md §4.4): either
// {"type":"update", ...} to change delivery mode/priority, or
// {"type":"fetch","id":"..."} to replay one retained event by id.
type controlMessage struct {
	Type     string             `json:"type"`
	Mode     *topicreg.Mode     `json:"mode,omitempty"`
	Priority *topicreg.Priority `json:"priority,omitempty"`
	ID       *uuid.UUID         `json:"id,omitempty"`
}
