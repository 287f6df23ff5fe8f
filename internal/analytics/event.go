package analytics

import "time"

// PageInfo describes where an event happened. Snapshots are taken per event,
// not cached, since the page can change between events.
type PageInfo struct {
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	Title    string `json:"title,omitempty"`
	Referrer string `json:"referrer,omitempty"`
}

type DeviceInfo struct {
	ScreenWidth    int    `json:"screenWidth,omitempty"`
	ScreenHeight   int    `json:"screenHeight,omitempty"`
	ViewportWidth  int    `json:"viewportWidth,omitempty"`
	ViewportHeight int    `json:"viewportHeight,omitempty"`
	Language       string `json:"language,omitempty"`
	Timezone       string `json:"timezone,omitempty"`
}

type BrowserInfo struct {
	UserAgent string `json:"userAgent,omitempty"`
	Platform  string `json:"platform,omitempty"`
}

// Event is one tracked interaction.
type Event struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"event"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	SessionID string                 `json:"sessionId"`
	UserID    string                 `json:"userId,omitempty"`
	Page      PageInfo               `json:"page"`
	Device    DeviceInfo             `json:"device"`
	Browser   BrowserInfo            `json:"browser"`
}

// Batch is the wire shape of one flush.
type Batch struct {
	Events    []Event   `json:"events"`
	WebsiteID string    `json:"websiteId"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot captures the page/device/browser descriptors at one instant.
type Snapshot struct {
	Page    PageInfo
	Device  DeviceInfo
	Browser BrowserInfo
}

// SnapshotFunc supplies fresh descriptors for each event.
type SnapshotFunc func() Snapshot
