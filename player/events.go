package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/coursecast/coursecast/log"
)

// EventCallback receives property changes (name, new value) and other mpv events (event name, raw event).
type EventCallback func(name string, data interface{})

// observedProperties are registered with observe_property; ids are arbitrary but unique.
var observedProperties = []struct {
	id   int
	name string
}{
	{1, "duration"},
	{2, "time-pos"},
	{3, "pause"},
	{4, "eof-reached"},
}

// EventListener holds a persistent IPC connection and forwards mpv events.
// mpv delivers property changes only to the connection that registered them,
// so registration and the read loop share one connection.
type EventListener struct {
	socketPath string
	callback   EventCallback
	conn       net.Conn
	mu         sync.Mutex
	listening  bool
	done       chan struct{}
}

// NewEventListener creates a listener for the given socket.
func NewEventListener(socketPath string, callback EventCallback) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		callback:   callback,
		done:       make(chan struct{}),
	}
}

// Start registers the observed properties and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for _, prop := range observedProperties {
		if err := writeCommand(conn, []interface{}{"observe_property", prop.id, prop.name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	el.conn = conn
	el.listening = true
	go el.readLoop(conn)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection, which ends the read loop.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}
	el.listening = false
	_ = el.conn.Close()
}

// Done is closed when the read loop has exited.
func (el *EventListener) Done() <-chan struct{} {
	return el.done
}

func (el *EventListener) readLoop(conn net.Conn) {
	defer close(el.done)
	el.consume(conn)
}

// consume dispatches newline-delimited events from r until it fails.
func (el *EventListener) consume(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			el.processEvent(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Warnf("event listener read error: %v", err)
			}
			return
		}
	}
}

// processEvent parses a single line. Command replies carry no "event" key and are ignored.
func (el *EventListener) processEvent(line []byte) {
	var event map[string]interface{}
	if err := json.Unmarshal(line, &event); err != nil {
		return
	}

	eventType, ok := event["event"].(string)
	if !ok || el.callback == nil {
		return
	}

	if eventType == "property-change" {
		if name, _ := event["name"].(string); name != "" {
			el.callback(name, event["data"])
		}
		return
	}
	el.callback(eventType, event)
}
