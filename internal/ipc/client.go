package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"autosort/internal/config"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func call[Resp any](c *Client, method string, req any) (*Resp, error) {
	var resp Resp
	if err := c.client.Call(serviceName+"."+method, req, &resp); err != nil {
		return nil, decodeError(err)
	}
	return &resp, nil
}

// Start requests the daemon to start watching.
func (c *Client) Start() (*StartResponse, error) {
	return call[StartResponse](c, "Start", StartRequest{})
}

// Stop requests the daemon to stop watching.
func (c *Client) Stop() (*StopResponse, error) {
	return call[StopResponse](c, "Stop", StopRequest{})
}

// Shutdown asks the daemon process to exit.
func (c *Client) Shutdown() (*ShutdownResponse, error) {
	return call[ShutdownResponse](c, "Shutdown", ShutdownRequest{})
}

// Pause suspends event handling.
func (c *Client) Pause() (*PauseResponse, error) {
	return call[PauseResponse](c, "Pause", PauseRequest{})
}

// Resume re-enables event handling.
func (c *Client) Resume() (*PauseResponse, error) {
	return call[PauseResponse](c, "Resume", PauseRequest{})
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	return call[StatusResponse](c, "Status", StatusRequest{})
}

// PendingList returns staged files.
func (c *Client) PendingList() (*PendingListResponse, error) {
	return call[PendingListResponse](c, "PendingList", PendingListRequest{})
}

// PendingCancel drops a staged file.
func (c *Client) PendingCancel(id string) (*PendingCancelResponse, error) {
	return call[PendingCancelResponse](c, "PendingCancel", PendingRequest{ID: id})
}

// PendingMove moves a staged file now.
func (c *Client) PendingMove(id string) (*PendingMoveResponse, error) {
	return call[PendingMoveResponse](c, "PendingMove", PendingRequest{ID: id})
}

// Rescan stages files already in the watch folder.
func (c *Client) Rescan() (*RescanResponse, error) {
	return call[RescanResponse](c, "Rescan", RescanRequest{})
}

// HistoryList returns history, newest first. limit <= 0 returns everything.
func (c *Client) HistoryList(limit int) (*HistoryListResponse, error) {
	return call[HistoryListResponse](c, "HistoryList", HistoryListRequest{Limit: limit})
}

// HistoryStats returns move counts.
func (c *Client) HistoryStats() (*HistoryStatsResponse, error) {
	return call[HistoryStatsResponse](c, "HistoryStats", HistoryStatsRequest{})
}

// HistoryUndo undoes a recorded move.
func (c *Client) HistoryUndo(id string) (*UndoResponse, error) {
	return call[UndoResponse](c, "HistoryUndo", UndoRequest{ID: id})
}

// HistoryClear drops the retained history.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	return call[HistoryClearResponse](c, "HistoryClear", HistoryClearRequest{})
}

// RulesList returns the rule list.
func (c *Client) RulesList() (*RulesListResponse, error) {
	return call[RulesListResponse](c, "RulesList", RulesListRequest{})
}

// RuleAdd stores a new rule.
func (c *Client) RuleAdd(r Rule) (*RuleResponse, error) {
	return call[RuleResponse](c, "RuleAdd", RuleRequest{Rule: r})
}

// RuleUpdate replaces an existing rule.
func (c *Client) RuleUpdate(r Rule) (*RuleResponse, error) {
	return call[RuleResponse](c, "RuleUpdate", RuleRequest{Rule: r})
}

// RuleDelete removes a rule.
func (c *Client) RuleDelete(id string) (*RuleDeleteResponse, error) {
	return call[RuleDeleteResponse](c, "RuleDelete", RuleDeleteRequest{ID: id})
}

// RulesReorder assigns descending priorities in ids order.
func (c *Client) RulesReorder(ids []string) (*RulesListResponse, error) {
	return call[RulesListResponse](c, "RulesReorder", RulesReorderRequest{IDs: ids})
}

// RulesTest reports where a file name would be sent.
func (c *Client) RulesTest(name string, candidates []Rule) (*RulesTestResponse, error) {
	return call[RulesTestResponse](c, "RulesTest", RulesTestRequest{FileName: name, Rules: candidates})
}

// ConfigGet returns the live configuration.
func (c *Client) ConfigGet() (*ConfigResponse, error) {
	return call[ConfigResponse](c, "ConfigGet", ConfigGetRequest{})
}

// ConfigSave validates, persists, and applies a configuration.
func (c *Client) ConfigSave(cfg config.Config) (*ConfigResponse, error) {
	return call[ConfigResponse](c, "ConfigSave", ConfigSaveRequest{Config: cfg})
}
