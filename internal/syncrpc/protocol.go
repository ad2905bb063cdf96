package syncrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.VaultAPI over a Unix domain socket.
// Each method maps 1:1 to the VaultAPI interface.
//
//   Method         Params             Result
//   ────────────   ────────────────   ──────────────────────────────────
//   GetAllLogins   (none)             []LoginRecord
//   Status         (none)             {Status: SyncStatus, Cursor: uint64}
//   WaitStatus     {Cursor: uint64}   {Status: SyncStatus, Cursor: uint64}
//   Sync           (none)             true
//   Lock           (none)             true
//   Unlock         {Secret: string}   true
//   TouchLogin     {ID: string}       true
//   Reset          (none)             true
//
// WaitStatus long-polls: it returns as soon as the daemon's status cursor
// advances past the given one, or after the daemon-side wait timeout with
// the unchanged status. Clients should loop on the returned cursor.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error (sync/store failure, locked vault)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// StatusResult carries a sync status together with the daemon's monotonic
// status cursor.
type StatusResult struct {
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
	Cursor uint64 `json:"cursor"`
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/vaultbloom/vaultbloom.sock, falling back to
// ~/.local/state/vaultbloom/vaultbloom.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "vaultbloom", "vaultbloom.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/vaultbloom.sock"
	}
	return filepath.Join(home, ".local", "state", "vaultbloom", "vaultbloom.sock")
}
