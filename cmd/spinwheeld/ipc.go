package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"spinwheel"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// External clients (spinwheel-ctl, scripts, a kiosk UI) drive the wheel over
// a Unix domain socket.
//
// Protocol: Line-delimited JSON
//   - Client sends an input envelope: {"type": "spin", "data": {...}}
//     or {"type": "snapshot"} to read the current state.
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
// ============================================================================

// ipcReplyTimeout bounds how long a connection waits for the daemon loop.
const ipcReplyTimeout = time.Second

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status   string         `json:"status"`             // "ok" or "error"
	Error    string         `json:"error,omitempty"`    // error message if status == "error"
	Snapshot *StateSnapshot `json:"snapshot,omitempty"` // set for "snapshot" requests
}

// runIPCServer starts the Unix domain socket server.
// It runs until ctx is canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, msgs chan<- Message, logger *slog.Logger) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(ctx, conn, msgs, logger)
	}
}

// handleIPCConnection serves requests on one connection until it closes.
func handleIPCConnection(ctx context.Context, conn net.Conn, msgs chan<- Message, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		response := handleIPCRequest(ctx, []byte(line), msgs)
		if encErr := encoder.Encode(response); encErr != nil {
			logger.Error("IPC failed to send response", "error", encErr)
			return
		}
	}

	logger.Debug("IPC connection closed")
}

// handleIPCRequest decodes one request line, hands it to the daemon loop and
// waits for the outcome.
func handleIPCRequest(ctx context.Context, line []byte, msgs chan<- Message) IPCResponse {
	var env spinwheel.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return ipcError(fmt.Errorf("parse request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, ipcReplyTimeout)
	defer cancel()

	if env.Type == "snapshot" {
		reply := make(chan StateSnapshot, 1)
		if err := sendMessage(ctx, msgs, RequestSnapshot{Reply: reply}); err != nil {
			return ipcError(err)
		}
		select {
		case snap := <-reply:
			return IPCResponse{Status: "ok", Snapshot: &snap}
		case <-ctx.Done():
			return ipcError(fmt.Errorf("wait for snapshot: %w", ctx.Err()))
		}
	}

	in, err := spinwheel.UnmarshalInput(line)
	if err != nil {
		return ipcError(fmt.Errorf("parse input: %w", err))
	}

	reply := make(chan error, 1)
	if err := sendMessage(ctx, msgs, InputReceived{Input: in, Origin: "ipc", Reply: reply}); err != nil {
		return ipcError(err)
	}
	select {
	case err := <-reply:
		if err != nil {
			return ipcError(err)
		}
		return IPCResponse{Status: "ok"}
	case <-ctx.Done():
		return ipcError(fmt.Errorf("wait for daemon: %w", ctx.Err()))
	}
}

// sendMessage queues msg for the daemon loop, giving up when ctx ends.
func sendMessage(ctx context.Context, msgs chan<- Message, msg Message) error {
	select {
	case msgs <- msg:
		return nil
	case <-ctx.Done():
		return errors.New("message queue full")
	}
}

func ipcError(err error) IPCResponse {
	return IPCResponse{Status: "error", Error: err.Error()}
}

// ============================================================================
// IPC Client
// ============================================================================

// SendIPCRequest sends one raw request line and returns the decoded response.
func SendIPCRequest(socketPath string, line []byte) (IPCResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return IPCResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(line))); err != nil {
		return IPCResponse{}, fmt.Errorf("send request: %w", err)
	}

	var resp IPCResponse
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return IPCResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
