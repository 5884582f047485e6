package model

import "time"

// InteractionState is the dashboard's keyboard-driven state
type InteractionState struct {
	IsPaused       bool
	ShowHelp       bool
	ForceRefresh   bool
	LayoutStyle    int
	IsLoading      bool
	LoadingMessage string
}

// DashboardView is one frame's worth of dashboard data, already reduced to
// display strings
type DashboardView struct {
	Team    string `json:"team"`
	BaseURL string `json:"base_url"`

	Status        string    `json:"status"`
	StatusErr     string    `json:"status_error,omitempty"`
	StatusUpdated time.Time `json:"status_updated"`

	StreamState string   `json:"stream_state,omitempty"`
	StreamLines []string `json:"stream,omitempty"`

	History        []string `json:"history"`
	HistoryErr     string   `json:"history_error,omitempty"`
	HistoryDropped int      `json:"history_dropped,omitempty"`

	LastEvent   string `json:"last_event,omitempty"`
	EventResult string `json:"event_result,omitempty"`
	EventErr    string `json:"event_error,omitempty"`

	Now time.Time `json:"now"`
}
