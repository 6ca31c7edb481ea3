package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/daemon"
	"github.com/runger/burrow/internal/index"
	"github.com/runger/burrow/internal/result"
)

// Client talks the burrowd protocol over one persistent connection.
// Calls are serialized; the protocol is strict request/response.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// NewClient connects to the daemon, spawning it first if the socket is
// not answering.
func NewClient() (*Client, error) {
	_ = EnsureDaemon()
	conn, err := Dial(DialTimeout)
	if err != nil {
		return nil, err
	}
	return NewClientWithConn(conn), nil
}

// NewClientWithConn wraps an existing connection. Useful for tests.
func NewClientWithConn(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(req *daemon.Request, timeout time.Duration) (*daemon.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetDeadline(time.Now().Add(timeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.enc.Encode(req); err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", req.Method, err)
	}
	var resp daemon.Response
	if err := c.dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", req.Method, err)
	}
	if !resp.OK {
		return &resp, errors.New(resp.Error)
	}
	return &resp, nil
}

// Search runs a query through the daemon's router.
func (c *Client) Search(query string) ([]result.SearchResult, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodSearch, Query: query}, RequestTimeout)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Dispatch executes a selected result. The caller threads the
// secondary-input session state through consecutive calls.
func (c *Client) Dispatch(session action.SessionState, res result.SearchResult, modifier result.Modifier, query, secondary string) (action.SessionState, *action.Outcome, error) {
	resp, err := c.call(&daemon.Request{
		Method:    daemon.MethodDispatch,
		Result:    &res,
		Modifier:  string(modifier),
		Query:     query,
		Secondary: secondary,
		Session:   session,
	}, DispatchTimeout)
	if err != nil {
		if resp != nil && resp.Session != nil {
			return *resp.Session, nil, err
		}
		return action.SessionState{}, nil, err
	}
	next := action.SessionState{}
	if resp.Session != nil {
		next = *resp.Session
	}
	return next, resp.Outcome, nil
}

// RecordLaunch upserts a history entry without dispatching.
func (c *Client) RecordLaunch(id, name, exec, icon, description string) error {
	_, err := c.call(&daemon.Request{
		Method: daemon.MethodRecordLaunch,
		Launch: &daemon.LaunchRequest{
			ID: id, Name: name, Exec: exec, Icon: icon, Description: description,
		},
	}, RequestTimeout)
	return err
}

// Progress returns the indexer progress snapshot.
func (c *Client) Progress() (*index.Progress, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodProgress}, RequestTimeout)
	if err != nil {
		return nil, err
	}
	return resp.Progress, nil
}

// Health probes the daemon and its external dependencies.
func (c *Client) Health() (map[string]bool, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodHealth}, RequestTimeout)
	if err != nil {
		return nil, err
	}
	return resp.Health, nil
}

// Reindex starts a full rebuild of the content index.
func (c *Client) Reindex() (string, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodReindex}, RequestTimeout)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Update starts an incremental index run.
func (c *Client) Update() (string, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodUpdate}, RequestTimeout)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// History lists the frecency-ranked launch history.
func (c *Client) History(limit int) ([]daemon.HistoryEntry, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodHistory, Limit: limit}, RequestTimeout)
	if err != nil {
		return nil, err
	}
	return resp.History, nil
}

// RemoveHistory deletes one history entry by id.
func (c *Client) RemoveHistory(id string) (string, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodRemoveHistory, ID: id}, RequestTimeout)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ClearHistory removes every history entry.
func (c *Client) ClearHistory() (string, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodClearHistory}, RequestTimeout)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Status returns daemon vitals.
func (c *Client) Status() (*daemon.Status, error) {
	resp, err := c.call(&daemon.Request{Method: daemon.MethodStatus}, RequestTimeout)
	if err != nil {
		return nil, err
	}
	return resp.Status, nil
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown() error {
	_, err := c.call(&daemon.Request{Method: daemon.MethodShutdown}, RequestTimeout)
	return err
}

// Ping reports whether the daemon answers.
func (c *Client) Ping() bool {
	_, err := c.Health()
	return err == nil
}
