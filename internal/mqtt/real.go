package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/shower-regulator/internal/regulator"
)

const (
	clientID       = "shower-regulator"
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to a broker. While the connection is down,
// messages are queued and sent in order once it returns.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	queue     *outbox
	connected bool // has connected at least once
	ready     bool // connected and the outbox has been flushed
	now       func() time.Time
}

// NewRealPublisher connects to broker. An unreachable broker is not an
// error: the client retries in the background. The broker publishes a
// SHUTDOWN with reason MQTT_DISCONNECT on the system topic if the connection
// drops without a clean Close.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queue: newOutbox(DefaultOutboxSize), now: time.Now}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, false).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// The client keeps retrying; messages queue until it succeeds.
		log.Printf("mqtt: %s not reachable after %v, retrying in background", broker, connectTimeout)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// newPublisher wraps an existing client. An open client counts as flushed.
func newPublisher(client paho.Client, now func() time.Time) *RealPublisher {
	open := client.IsConnectionOpen()
	return &RealPublisher{client: client, queue: newOutbox(DefaultOutboxSize), connected: open, ready: open, now: now}
}

// onConnect flushes the outbox and, on every connection after the first,
// announces RECONNECTED. New messages keep going to the outbox until it is
// empty, so nothing overtakes what was queued.
func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	flushed, dropped := 0, 0
	for {
		p.mu.Lock()
		msgs, d := p.queue.take()
		dropped += d
		if len(msgs) == 0 {
			p.ready = true
			p.mu.Unlock()
			break
		}
		p.mu.Unlock()

		for _, m := range msgs {
			if err := p.send(m); err != nil {
				log.Printf("mqtt: flush %s: %v", m.topic, err)
			}
		}
		flushed += len(msgs)
	}

	if reconnect {
		log.Printf("mqtt: reconnected, flushed %d queued messages (%d dropped)", flushed, dropped)
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		if err := p.send(pending{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
			log.Printf("mqtt: publish RECONNECTED: %v", err)
		}
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	log.Printf("mqtt: connection lost: %v", err)
	p.mu.Lock()
	p.ready = false
	p.mu.Unlock()
}

// Publish sends a setpoint event at QoS 0.
func (p *RealPublisher) Publish(event regulator.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.deliver(pending{topic: Topic, payload: payload})
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.deliver(pending{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) deliver(m pending) error {
	p.mu.Lock()
	if !p.ready || !p.client.IsConnectionOpen() {
		p.queue.add(m)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.send(m)
}

func (p *RealPublisher) send(m pending) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// Queued returns the number of messages waiting for the connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.size()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker, allowing one second for in-flight work.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
