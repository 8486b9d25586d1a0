package mqtt

import (
	"encoding/json"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/metrics"
)

type Event string

const (
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
	EventRefresh Event = "refresh"
)

// Publisher is the one call the Notifier needs from a broker connection.
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

type Message struct {
	Event Event     `json:"event"`
	Kind  string    `json:"kind"`
	ID    string    `json:"id,omitempty"`
	At    time.Time `json:"at"`
}

// QueueSize bounds the notifications waiting for the broker. Past it new
// notifications are dropped.
const QueueSize = 1024

type outbound struct {
	topic    string
	retained bool
	event    Event
	payload  []byte
}

// Notifier publishes change notifications. Delivery is fire-and-forget:
// callers only enqueue, one worker talks to the broker, and failures are
// logged and counted. A nil Notifier, or one without a Publisher, does
// nothing.
type Notifier struct {
	pub    Publisher
	topics Topics
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan outbound
	done   chan struct{}
}

// NewNotifier starts the delivery worker. Close stops it.
func NewNotifier(pub Publisher, topics Topics) *Notifier {
	n := &Notifier{
		pub:    pub,
		topics: topics,
		now:    time.Now,
		queue:  make(chan outbound, QueueSize),
		done:   make(chan struct{}),
	}
	go n.run()
	return n
}

// Close delivers what is already queued and stops the worker. Later
// notifications are dropped.
func (n *Notifier) Close() {
	if n == nil {
		return
	}
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

func (n *Notifier) run() {
	defer close(n.done)
	for o := range n.queue {
		n.deliver(o)
	}
}

func (n *Notifier) deliver(o outbound) {
	if err := n.pub.Publish(o.topic, o.retained, o.payload); err != nil {
		log.Warn().Err(err).Str("topic", o.topic).Msg("[mqtt] publish failed")
		metrics.MQTTPublished.WithLabelValues("error").Inc()
		return
	}
	metrics.MQTTPublished.WithLabelValues("ok").Inc()
	log.Debug().Str("topic", o.topic).Str("event", string(o.event)).Msg("[mqtt] published")
}

// Announce publishes the retained init message of every entity kind.
func (n *Notifier) Announce() {
	for _, kind := range []string{KindDevices, KindCampaigns, KindContent} {
		n.publish(n.topic(func(t Topics) string { return t.Init(kind) }), true, Message{Event: "init", Kind: kind})
	}
}

func (n *Notifier) DeviceChanged(ev Event, deviceID string) {
	n.publish(n.topic(func(t Topics) string { return t.DeviceEvents(deviceID) }), false,
		Message{Event: ev, Kind: KindDevices, ID: deviceID})
}

func (n *Notifier) ContentChanged(ev Event, id int) {
	n.publish(n.topic(func(t Topics) string { return t.ContentEvents(id) }), false,
		Message{Event: ev, Kind: KindContent, ID: strconv.Itoa(id)})
}

// CampaignChanged publishes the campaign event and asks every device that
// was or is targeted to refresh.
func (n *Notifier) CampaignChanged(ev Event, id int, targets ...[]string) {
	n.publish(n.topic(func(t Topics) string { return t.CampaignEvents(id) }), false,
		Message{Event: ev, Kind: KindCampaigns, ID: strconv.Itoa(id)})

	var affected []string
	for _, list := range targets {
		affected = append(affected, list...)
	}
	slices.Sort(affected)
	n.RefreshDevices(slices.Compact(affected)...)
}

func (n *Notifier) RefreshDevices(deviceIDs ...string) {
	for _, id := range deviceIDs {
		n.publish(n.topic(func(t Topics) string { return t.Refresh(id) }), false,
			Message{Event: EventRefresh, Kind: KindDevices, ID: id})
	}
}

func (n *Notifier) topic(f func(Topics) string) string {
	if n == nil {
		return ""
	}
	return f(n.topics)
}

func (n *Notifier) publish(topic string, retained bool, msg Message) {
	if n == nil || n.pub == nil {
		log.Debug().Str("event", string(msg.Event)).Str("kind", msg.Kind).Msg("[mqtt] notifications disabled, dropping")
		return
	}
	msg.At = n.now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("[mqtt] could not encode notification")
		metrics.MQTTPublished.WithLabelValues("error").Inc()
		return
	}
	n.enqueue(outbound{topic: topic, retained: retained, event: msg.Event, payload: payload})
}

func (n *Notifier) enqueue(o outbound) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		log.Debug().Str("topic", o.topic).Msg("[mqtt] notifier closed, dropping")
		return
	}
	select {
	case n.queue <- o:
	default:
		log.Warn().Str("topic", o.topic).Msg("[mqtt] notification queue full, dropping")
		metrics.MQTTPublished.WithLabelValues("dropped").Inc()
	}
}

// compile-time check that Client can back a Notifier
var _ Publisher = (*Client)(nil)

