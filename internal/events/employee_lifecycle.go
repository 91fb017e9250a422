package events

import "time"

const EmployeeLifecycleTopic = "directory.employee.lifecycle.v1"

type EmployeeCreatedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID int       `json:"employee_id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	OccurredAt time.Time `json:"occurred_at"`
}

type EmployeeDeletedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	EmployeeID int       `json:"employee_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
