package models

// AssetEvent represents one audit trail row. Payload is the structured
// snapshot stored with the event, decoded from its JSON text form.
type AssetEvent struct {
	ID        int64          `json:"id"`
	AssetTag  string         `json:"asset_tag"`
	EventType string         `json:"event_type"` // created, updated, retired, custody_state_changed
	EventDate string         `json:"event_date"`
	Actor     *string        `json:"actor,omitempty"`
	Notes     *string        `json:"notes,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}
