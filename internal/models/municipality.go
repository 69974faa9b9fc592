package models

// Municipality is one monitored administrative area.
type Municipality struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Province string `json:"province,omitempty"`
}
