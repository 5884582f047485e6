package top

import (
	"fmt"
	"time"

	"github.com/penwyp/go-team-monitor/internal/application/eventform"
	"github.com/penwyp/go-team-monitor/internal/config"
)

// TopConfig contains configuration for the top command
type TopConfig struct {
	// Connection
	BaseURL    string
	Team       string
	Credential string
	Timeout    time.Duration

	// Refresh settings
	PollInterval  time.Duration
	UIRefreshRate float64

	// Buffers
	StreamBuffer int
	HistoryLimit int

	// Event submitted with the 'e' key
	EventType    string
	EventPayload string

	// LayoutStyle is the layout shown at start-up
	LayoutStyle int
}

// Validate fills defaults and rejects out-of-range settings
func (c *TopConfig) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = config.DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = config.DefaultTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = config.DefaultPollInterval
	}
	if c.UIRefreshRate == 0 {
		c.UIRefreshRate = 1
	}
	if c.StreamBuffer == 0 {
		c.StreamBuffer = config.DefaultStreamBuffer
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = config.DefaultHistoryLimit
	}
	if c.EventPayload == "" {
		c.EventPayload = eventform.DefaultPayload
	}

	if c.UIRefreshRate < 0.1 || c.UIRefreshRate > 20 {
		return fmt.Errorf("refresh-per-second must be between 0.1 and 20, got %g", c.UIRefreshRate)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func (c *TopConfig) uiInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.UIRefreshRate)
}
