// Package queue defines the check-in audit messages exchanged over the
// message broker and the consumer that persists them.
package queue

// CheckinQueueName is the durable queue carrying CheckinRecordedEvent.
const CheckinQueueName = "checkin.recorded"

// CheckinRecordedEvent is published after a participant is checked in.  It
// carries enough to write the audit line without querying the database.
type CheckinRecordedEvent struct {
    ParticipantID string `json:"participant_id"`
    Name          string `json:"name"`
    Organization  string `json:"organization"`
    Room          string `json:"room"`
    RoomCode      string `json:"room_code"`
    Operator      string `json:"operator,omitempty"`
    CheckedInAt   string `json:"checked_in_at"`
}
