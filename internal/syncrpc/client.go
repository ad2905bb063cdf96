package syncrpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vaultbloom/vaultbloom/internal/model"
)

const (
	dialTimeout = 5 * time.Second
	callTimeout = 40 * time.Second // must exceed the daemon's long-poll wait
)

// Client implements model.VaultAPI over a Unix domain socket using
// JSON-RPC 2.0. Calls are serialized per client; use a dedicated client for
// the blocking WaitStatus loop so it cannot starve interactive calls.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the vault daemon at the given socket path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("syncrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: json.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(method string, params interface{}, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("syncrpc: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	c.conn.SetDeadline(time.Now().Add(callTimeout))
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("syncrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("syncrpc: read: %w", err)
		}
		return fmt.Errorf("syncrpc: connection closed")
	}

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("syncrpc: unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("syncrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func statusFromResult(r StatusResult) model.SyncStatus {
	state, ok := model.ParseState(r.State)
	if !ok {
		return model.SyncError(fmt.Sprintf("unknown sync state %q", r.State))
	}
	if state == model.StateError {
		return model.SyncError(r.Reason)
	}
	return model.SyncStatus{State: state}
}

func (c *Client) GetAllLogins() ([]model.LoginRecord, error) {
	var result []model.LoginRecord
	err := c.call("GetAllLogins", nil, &result)
	return result, err
}

func (c *Client) Status() (model.SyncStatus, uint64) {
	var result StatusResult
	if err := c.call("Status", nil, &result); err != nil {
		return model.SyncError(err.Error()), 0
	}
	return statusFromResult(result), result.Cursor
}

func (c *Client) WaitStatus(cursor uint64) (model.SyncStatus, uint64) {
	var result StatusResult
	if err := c.call("WaitStatus", map[string]interface{}{"Cursor": cursor}, &result); err != nil {
		return model.SyncError(err.Error()), cursor
	}
	return statusFromResult(result), result.Cursor
}

func (c *Client) Sync() error {
	return c.call("Sync", nil, nil)
}

func (c *Client) Lock() error {
	return c.call("Lock", nil, nil)
}

func (c *Client) Unlock(secret string) error {
	return c.call("Unlock", map[string]interface{}{"Secret": secret}, nil)
}

func (c *Client) TouchLogin(id string) error {
	return c.call("TouchLogin", map[string]interface{}{"ID": id}, nil)
}

func (c *Client) Reset() error {
	return c.call("Reset", nil, nil)
}
