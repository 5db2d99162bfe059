package models

// Record statuses shared by areas, cities, neighborhoods, users and workers.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)
