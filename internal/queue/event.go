// Package queue defines message payloads exchanged over the message broker.
package queue

// ScanRecordedEvent is published after a scan or reverse transaction
// commits. It carries enough information for downstream consumers to
// build an audit trail or notify without querying the primary
// database. Direction is "SCAN" or "REVERSE".
type ScanRecordedEvent struct {
	EventID      uint64 `json:"event_id"`
	EventCode    string `json:"event_code"`
	TerminalCode string `json:"terminal_code"`
	InvitationID uint64 `json:"invitation_id"`
	Label        string `json:"label"`
	PeopleCount  uint32 `json:"people_count"`
	ScannedCount uint32 `json:"scanned_count"`
	Direction    string `json:"direction"`
	RecordedAt   string `json:"recorded_at"`
}
