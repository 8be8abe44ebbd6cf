package model

import "time"

// Participant represents a pre-registered attendee as stored in the
// `participants` table.  The ID is assigned by the organiser before the
// event, is unique and never changes: it is exactly the payload encoded
// in the participant's QR code.
//
// Fields:
//  ID           – externally assigned identifier (QR payload).
//  Name         – display name shown on the welcome screen.
//  Organization – delegation or organisation the participant represents.
//  Room         – human-readable room name; drives notification routing.
//  SeatNumber   – legacy seat label, used by the seat lookup endpoint.
//  Avatar       – legacy avatar URL.
//  QRCode       – PNG data URL produced at creation time from ID.
//  CheckedIn    – whether the participant has been scanned in.
//  CheckedInAt  – time of the last successful check-in (nil if none).
type Participant struct {
    ID           string     // participants.id
    Name         string     // participants.name
    Organization string     // participants.organization
    Room         string     // participants.room
    SeatNumber   string     // participants.seat_number
    Avatar       string     // participants.avatar
    QRCode       string     // participants.qr_code
    CheckedIn    bool       // participants.checked_in
    CheckedInAt  *time.Time // participants.checked_in_at (nullable)
}
