package models

import "time"

type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
	TicketClosed     TicketStatus = "Closed"
)

type SupportTicket struct {
	ID        string
	UserID    *string
	Email     string
	Subject   string
	Message   string
	Status    TicketStatus
	CreatedAt time.Time
}
