package daemon

import (
	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/index"
	"github.com/runger/burrow/internal/result"
)

// Protocol methods. Each request is one JSON object on the socket; the
// daemon answers with one Response object.
const (
	MethodSearch        = "search"
	MethodDispatch      = "dispatch"
	MethodRecordLaunch  = "record_launch"
	MethodProgress      = "progress"
	MethodHealth        = "health"
	MethodReindex       = "reindex"
	MethodUpdate        = "update"
	MethodHistory       = "history"
	MethodRemoveHistory = "remove_history"
	MethodClearHistory  = "clear_history"
	MethodStatus        = "status"
	MethodShutdown      = "shutdown"
)

// Request is one client call.
type Request struct {
	Method string `json:"method"`

	// Query is the raw search field content (search).
	Query string `json:"query,omitempty"`

	// Dispatch parameters. Session carries the caller-owned secondary-input
	// state; the daemon returns the successor state in the response.
	Result    *result.SearchResult `json:"result,omitempty"`
	Modifier  string               `json:"modifier,omitempty"`
	Secondary string               `json:"secondary,omitempty"`
	Session   action.SessionState  `json:"session,omitempty"`

	// Launch carries an explicit history upsert (record_launch).
	Launch *LaunchRequest `json:"launch,omitempty"`

	// Limit caps list responses (history).
	Limit int `json:"limit,omitempty"`

	// ID names a single history entry (remove_history).
	ID string `json:"id,omitempty"`
}

// LaunchRequest is the record_launch payload.
type LaunchRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Exec        string `json:"exec,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// HistoryEntry is one row of the history listing.
type HistoryEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Count      int64  `json:"count"`
	LastUsedMs int64  `json:"last_used_ms"`
}

// Status reports daemon vitals.
type Status struct {
	Version      string `json:"version"`
	PID          int    `json:"pid"`
	UptimeSecs   int64  `json:"uptime_secs"`
	HistoryCount int64  `json:"history_count"`
	VectorCount  int64  `json:"vector_count"`
	IndexerPhase string `json:"indexer_phase"`
}

// Response is the daemon's answer. Exactly the fields relevant to the
// request method are populated; Error is set when OK is false.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	Results  []result.SearchResult `json:"results,omitempty"`
	Outcome  *action.Outcome       `json:"outcome,omitempty"`
	Session  *action.SessionState  `json:"session,omitempty"`
	Progress *index.Progress       `json:"progress,omitempty"`
	Health   map[string]bool       `json:"health,omitempty"`
	History  []HistoryEntry        `json:"history,omitempty"`
	Status   *Status               `json:"status,omitempty"`
	Message  string                `json:"message,omitempty"`
}

func errorResponse(err error) Response {
	return Response{Error: err.Error()}
}
