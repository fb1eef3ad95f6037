package entity

import "time"

// PageView is one snapshot of the observed page: its current address and the
// serialized DOM at the moment of capture.
type PageView struct {
	URL         string
	HTML        string
	RetrievedAt time.Time
}
