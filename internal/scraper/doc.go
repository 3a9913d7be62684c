// Package scraper loads every entry of an infinite-scroll chat sidebar by
// repeatedly scrolling its container to the end, then extracts the entry
// titles as plain text.
package scraper

import "errors"

// ErrContainerNotFound is returned when the scrollable sidebar container is
// absent from the page.
var ErrContainerNotFound = errors.New("sidebar container not found")

// Sample is one observation of the container taken after scrolling it to its
// maximum offset.
type Sample struct {
	Found  bool  `json:"found"`
	Count  int   `json:"count"`
	Height int64 `json:"height"`
}

// ScrollResult summarizes a finished scroll loop.
type ScrollResult struct {
	Iterations int
	Count      int
	Height     int64
	Reason     StopReason
}
