package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"spinwheel"
)

func main() {
	var (
		wsURL = flag.String("ws", "ws://127.0.0.1:8390/ws", "spinwheeld websocket URL")
		spin  = flag.Float64("spin", -1, "Send a spin with this multiplier (0..1) after connecting")
		raw   = flag.Bool("raw", false, "Print frames as received instead of a summary")
	)
	flag.Parse()

	u, err := url.Parse(*wsURL)
	if err != nil {
		log.Fatalf("invalid websocket URL: %v", err)
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	d := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	log.Printf("connecting to %s...", u.String())
	conn, _, err := d.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("connected! (press Ctrl+C to exit)")

	// Pings and inputs share the connection.
	var writeMu sync.Mutex

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	go func() {
		for range pingTicker.C {
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				log.Printf("ping failed: %v", err)
				return
			}
		}
	}()

	if *spin >= 0 {
		sendInput(conn, &writeMu, spinwheel.SpinRequested{Multiplier: *spin})
	}

	w := &wheelWatcher{out: os.Stdout}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket error: %v", err)
				}
				return
			}
			// The daemon pings every 20s; any frame proves it is alive.
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))

			if messageType != websocket.TextMessage {
				fmt.Printf("[BINARY] %d bytes\n", len(message))
				continue
			}
			if *raw {
				fmt.Printf("%s\n", message)
				continue
			}
			w.handleFrame(message)
		}
	}()

	select {
	case <-sigc:
		log.Printf("shutting down...")
		writeMu.Lock()
		err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		writeMu.Unlock()
		if err != nil {
			log.Printf("error closing connection: %v", err)
		}
	case <-done:
		log.Printf("connection closed")
	}
}

// wheelWatcher folds daemon frames into a running view of the wheel and
// prints one line per meaningful change.
//
// Rotation deltas are summed and only reported when the wheel settles, so a
// spin prints a handful of lines instead of one per frame.
type wheelWatcher struct {
	out io.Writer

	wedges   int
	rotation float64
	moved    float64
	selected int
	status   spinwheel.Status
}

// frame is the daemon's WS envelope. Ts is informational only.
type frame struct {
	Type string          `json:"type"`
	Ts   time.Time       `json:"ts"`
	Data json.RawMessage `json:"data"`
}

func (w *wheelWatcher) handleFrame(message []byte) {
	var f frame
	if err := json.Unmarshal(message, &f); err != nil {
		fmt.Fprintf(w.out, "[TEXT] %s\n", message)
		return
	}

	if f.Type == "state_init" {
		var snap spinwheel.Snapshot
		if err := json.Unmarshal(f.Data, &snap); err != nil {
			fmt.Fprintf(w.out, "[INIT] undecodable snapshot: %v\n", err)
			return
		}
		w.wedges = snap.WedgeCount
		w.rotation = snap.Rotation
		w.selected = snap.SelectedIndex
		w.status = snap.Status
		if !snap.Configured {
			fmt.Fprintf(w.out, "[INIT] wheel unconfigured\n")
			return
		}
		fmt.Fprintf(w.out, "[INIT] %d wedges, selected %d, %s\n", w.wedges, w.selected, w.status)
		return
	}

	ev, err := spinwheel.UnmarshalEvent(message)
	if err != nil {
		fmt.Fprintf(w.out, "[UNKNOWN] %s\n", message)
		return
	}

	switch e := ev.(type) {
	case spinwheel.RotationDelta:
		w.rotation = spinwheel.NormalizeAngle(w.rotation + e.Radians)
		w.moved += e.Radians

	case spinwheel.StatusChanged:
		w.status = e.To
		fmt.Fprintf(w.out, "[STATUS] %s -> %s\n", e.From, e.To)

	case spinwheel.DecelerationEnded:
		fmt.Fprintf(w.out, "[COASTED] %.2f turns\n", math.Abs(w.moved)/(2*math.Pi))

	case spinwheel.WedgeTapped:
		fmt.Fprintf(w.out, "[TAP] wedge %d\n", e.Index)

	case spinwheel.SelectionChanged:
		w.selected = e.Index
		fmt.Fprintf(w.out, "[SELECTED] wedge %d (moved %.3f rad, rotation %.3f rad)\n", e.Index, w.moved, w.rotation)
		w.moved = 0
	}
}

// sendInput writes one input envelope (thread-safe).
func sendInput(conn *websocket.Conn, writeMu *sync.Mutex, in spinwheel.Input) {
	payload, err := spinwheel.MarshalInput(in)
	if err != nil {
		log.Printf("error marshaling input: %v", err)
		return
	}

	writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, payload)
	writeMu.Unlock()

	if err != nil {
		log.Printf("error sending input: %v", err)
	}
}
