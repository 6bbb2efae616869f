package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"spinwheel"
)

// ============================================================================
// spinwheel-ctl - Command-line IPC Client
// ============================================================================
// Sends inputs to the spinwheeld daemon over its Unix socket.
//
// Usage:
//   spinwheel-ctl spin 0.8
//   spinwheel-ctl random
//   spinwheel-ctl begin 300 200 && spinwheel-ctl move 200 300 && spinwheel-ctl end
//   spinwheel-ctl status
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/spinwheeld.sock)
// ============================================================================

const defaultSocketPath = "/tmp/spinwheeld.sock"

// ipcResponse mirrors the daemon's response; the snapshot is printed as-is.
type ipcResponse struct {
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Snapshot json.RawMessage `json:"snapshot,omitempty"`
}

var errUsage = errors.New("usage")

func main() {
	socketPath := defaultSocketPath

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	}

	line, err := buildRequest(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			printUsage()
		}
		os.Exit(1)
	}

	resp, err := send(socketPath, line)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(resp.Snapshot) > 0 {
		var pretty any
		if err := json.Unmarshal(resp.Snapshot, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
			return
		}
		fmt.Println(string(resp.Snapshot))
		return
	}
	fmt.Println("ok")
}

// buildRequest turns command-line arguments into one request line.
func buildRequest(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: missing command", errUsage)
	}

	var in spinwheel.Input

	switch args[0] {
	case "status", "snapshot":
		return json.Marshal(spinwheel.Envelope{Type: "snapshot"})

	case "begin", "move":
		if len(args) < 3 {
			return nil, fmt.Errorf("%w: %s requires X and Y", errUsage, args[0])
		}
		x, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid X: %w", err)
		}
		y, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Y: %w", err)
		}
		if args[0] == "begin" {
			in = spinwheel.TouchBegan{X: x, Y: y}
		} else {
			in = spinwheel.TouchMoved{X: x, Y: y}
		}

	case "end":
		taps := 0
		if len(args) >= 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid tap count: %q", args[1])
			}
			taps = n
		}
		in = spinwheel.TouchEnded{TapCount: taps}

	case "cancel-touch":
		in = spinwheel.TouchCancelled{}

	case "spin":
		m := 1.0
		if len(args) >= 2 {
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid multiplier: %w", err)
			}
			m = v
		}
		in = spinwheel.SpinRequested{Multiplier: m}

	case "random":
		in = spinwheel.RandomSpinRequested{}

	case "reload":
		if len(args) < 2 {
			return nil, fmt.Errorf("%w: reload requires a wedge count", errUsage)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("invalid wedge count: %w", err)
		}
		in = spinwheel.ReloadRequested{WedgeCount: n}

	case "cancel", "stop":
		in = spinwheel.CancelRequested{}

	default:
		return nil, fmt.Errorf("%w: unknown command: %s", errUsage, args[0])
	}

	return spinwheel.MarshalInput(in)
}

func send(socketPath string, line []byte) (ipcResponse, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return ipcResponse{}, fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Line-delimited JSON
	if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
		return ipcResponse{}, fmt.Errorf("send request: %w", err)
	}

	var response ipcResponse
	if err := json.NewDecoder(conn).Decode(&response); err != nil {
		return ipcResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if response.Status == "error" {
		return response, fmt.Errorf("daemon error: %s", response.Error)
	}
	return response, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `spinwheel-ctl - Control the spinwheeld daemon via IPC

Usage:
  spinwheel-ctl [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: %s)

Commands:
  begin X Y              Start a touch at (X, Y)
  move X Y               Move the active touch to (X, Y)
  end [TAPS]             Release the touch (TAPS > 0 marks a tap)
  cancel-touch           Abort the touch and snap
  spin [MULT]            Spin at MULT * max velocity (0..1, default 1)
  random                 Spin with a random strength
  reload N               Reconfigure the wheel with N wedges
  cancel, stop           Stop all motion where it is
  status, snapshot       Print the daemon's current state
  help, -h, --help       Show this help message

Examples:
  spinwheel-ctl spin 0.5
  spinwheel-ctl reload 12
  spinwheel-ctl -socket /run/spinwheeld.sock status
`, defaultSocketPath)
}
