// Package mqtt is the push side of the system: an owned broker connection,
// the notifications published on entity changes, and the listener for what
// players report back.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var ErrNotConnected = errors.New("mqtt client not connected")

const defaultQoS byte = 1

// MessageHandler processes one inbound message. A returned error is logged,
// the subscription stays alive.
type MessageHandler func(topic string, payload []byte) error

type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Timeout   time.Duration
	// OnConnect runs after every successful connect, once subscriptions
	// are restored.
	OnConnect func()
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// Client owns one broker connection. Every call blocks until the broker
// acknowledges it, the context ends, or the configured timeout passes.
type Client struct {
	client    paho.Client
	timeout   time.Duration
	onConnect func()

	mu   sync.Mutex
	subs map[string]subscription
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	c := &Client{timeout: opts.Timeout, onConnect: opts.OnConnect, subs: map[string]subscription{}}

	po := paho.NewClientOptions()
	po.AddBroker(opts.BrokerURL)
	po.SetClientID(opts.ClientID)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		po.SetPassword(opts.Password)
	}
	po.SetAutoReconnect(true)
	po.SetConnectRetry(true)
	po.SetConnectRetryInterval(10 * time.Second)
	po.SetCleanSession(true)
	po.SetConnectTimeout(opts.Timeout)
	po.SetOnConnectHandler(c.handleConnect)
	po.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn().Err(err).Msg("[mqtt] connection lost")
	})

	c.client = paho.NewClient(po)
	return c
}

// Connect dials the broker and waits up to the timeout for the CONNACK. On
// failure paho keeps retrying in the background and subscriptions made in
// the meantime are applied once it connects.
func (c *Client) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.await(ctx, c.client.Connect()); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Subscribe registers handler for topic. While the connection is down the
// subscription is only recorded; it is applied on every (re)connect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()
	if !c.client.IsConnectionOpen() {
		return nil
	}
	return c.subscribe(topic, qos, handler)
}

// Publish sends payload at QoS 1 and waits for the PUBACK.
func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.await(ctx, c.client.Publish(topic, defaultQoS, retained, payload)); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Disconnect waits up to 250ms for in-flight work, then closes the connection
// or stops a connect that is still retrying.
func (c *Client) Disconnect() {
	if c.client.IsConnected() {
		c.client.Disconnect(250)
		log.Info().Msg("[mqtt] disconnected")
	}
}

func (c *Client) subscribe(topic string, qos byte, handler MessageHandler) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	token := c.client.Subscribe(topic, qos, func(_ paho.Client, msg paho.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("[mqtt] message handler failed")
		}
	})
	if err := c.await(ctx, token); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}
	return nil
}

func (c *Client) handleConnect(_ paho.Client) {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, s := range c.subs {
		subs[topic] = s
	}
	c.mu.Unlock()

	log.Info().Int("subscriptions", len(subs)).Msg("[mqtt] connected")
	for topic, s := range subs {
		// paho runs this handler on its own goroutine; blocking here is fine
		if err := c.subscribe(topic, s.qos, s.handler); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("[mqtt] resubscribe failed")
		}
	}
	if c.onConnect != nil {
		c.onConnect()
	}
}

func (c *Client) await(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
