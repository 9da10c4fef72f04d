package sdk

import "time"

type Event struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Time time.Time      `json:"time"`
	Data map[string]any `json:"data"`
}

// Bus is what resources publish on.
type Bus interface {
	Publish(ev Event)
}
