package ipc

import (
	"autosort/internal/config"
	"autosort/internal/daemon"
	"autosort/internal/history"
	"autosort/internal/rules"
	"autosort/internal/staging"
)

// PendingFile mirrors the staged-file record for IPC callers.
type PendingFile = staging.PendingFile

// MoveRecord mirrors a history entry for IPC callers.
type MoveRecord = history.Record

// Rule mirrors a sorting rule for IPC callers.
type Rule = rules.Rule

// StartRequest begins watching.
type StartRequest struct{}

// StartResponse indicates whether watching is now running.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops watching.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ShutdownRequest asks the daemon process to exit.
type ShutdownRequest struct{}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Acknowledged bool `json:"acknowledged"`
	PID          int  `json:"pid"`
}

// PauseRequest pauses or resumes event handling.
type PauseRequest struct{}

// PauseResponse reports the resulting paused flag.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/workflow status information.
type StatusResponse struct {
	daemon.Status
}

// PendingListRequest lists staged files.
type PendingListRequest struct{}

// PendingListResponse contains staged files ordered by due time.
type PendingListResponse struct {
	Files []PendingFile `json:"files"`
}

// PendingRequest names one staged file.
type PendingRequest struct {
	ID string `json:"id"`
}

// PendingCancelResponse returns the dropped entry.
type PendingCancelResponse struct {
	File PendingFile `json:"file"`
}

// PendingMoveResponse describes an immediate move.
type PendingMoveResponse struct {
	Status         string `json:"status"`
	Source         string `json:"source"`
	FinalPath      string `json:"final_path,omitempty"`
	SourceLeftover bool   `json:"source_leftover,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// RescanRequest stages files already in the watch folder.
type RescanRequest struct{}

// RescanResponse lists newly staged files.
type RescanResponse struct {
	Staged []PendingFile `json:"staged"`
}

// HistoryListRequest lists history; Limit <= 0 returns everything.
type HistoryListRequest struct {
	Limit int `json:"limit"`
}

// HistoryListResponse contains records newest first.
type HistoryListResponse struct {
	Records []MoveRecord `json:"records"`
}

// HistoryStatsRequest fetches move counts.
type HistoryStatsRequest struct{}

// HistoryStatsResponse carries move counts.
type HistoryStatsResponse struct {
	daemon.HistoryStats
}

// UndoRequest names the record to undo.
type UndoRequest struct {
	ID string `json:"id"`
}

// UndoResponse returns the updated record.
type UndoResponse struct {
	Record MoveRecord `json:"record"`
}

// HistoryClearRequest drops the retained history.
type HistoryClearRequest struct{}

// HistoryClearResponse reports how many records were dropped.
type HistoryClearResponse struct {
	Removed int `json:"removed"`
}

// RulesListRequest lists rules.
type RulesListRequest struct{}

// RulesListResponse contains the rule list in stored order.
type RulesListResponse struct {
	Rules []Rule `json:"rules"`
}

// RuleRequest carries a rule to add or update.
type RuleRequest struct {
	Rule Rule `json:"rule"`
}

// RuleResponse returns the stored rule.
type RuleResponse struct {
	Rule Rule `json:"rule"`
}

// RuleDeleteRequest names the rule to delete.
type RuleDeleteRequest struct {
	ID string `json:"id"`
}

// RuleDeleteResponse acknowledges a delete.
type RuleDeleteResponse struct {
	Deleted bool `json:"deleted"`
}

// RulesReorderRequest lists rule ids from highest to lowest priority.
type RulesReorderRequest struct {
	IDs []string `json:"ids"`
}

// RulesTestRequest is a dry run. Rules defaults to the configured set.
type RulesTestRequest struct {
	FileName string `json:"file_name"`
	Rules    []Rule `json:"rules,omitempty"`
}

// RulesTestResponse reports the destination folder, if any rule matched.
type RulesTestResponse struct {
	Matched           bool   `json:"matched"`
	DestinationFolder string `json:"destination_folder,omitempty"`
}

// ConfigGetRequest fetches the live configuration.
type ConfigGetRequest struct{}

// ConfigResponse carries a configuration and the file it lives in.
type ConfigResponse struct {
	Config config.Config `json:"config"`
	Path   string        `json:"path"`
}

// ConfigSaveRequest replaces the configuration.
type ConfigSaveRequest struct {
	Config config.Config `json:"config"`
}
