package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/ridecore/core/model"
	"github.com/kilianp07/ridecore/infra/logger"
)

// ErrOverloaded is replied when a priority lane is full.
var ErrOverloaded = errors.New("bridge overloaded")

// Handler processes one request envelope and returns its reply.
type Handler interface {
	Handle(ctx context.Context, env Envelope) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env Envelope) Response

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) Response { return f(ctx, env) }

// Bridge exposes a Handler over MQTT. Requests arrive on
// <prefix>/request/<kind>; replies go to the envelope reply_to topic or to
// <prefix>/response/<kind>. Urgent requests are served before standard ones,
// standard before economy.
type Bridge struct {
	cfg     Config
	cli     pahoClient
	handler Handler
	log     logger.Logger
	now     func() time.Time
	lanes   [3]chan Envelope
	backoff time.Duration
}

// NewBridge connects to the broker and subscribes to the request topics.
func NewBridge(cfg Config, h Handler) (*Bridge, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("mqtt: broker is required")
	}
	if h == nil {
		return nil, fmt.Errorf("mqtt: handler is required")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-bridge")
	b := &Bridge{
		cfg:     cfg,
		handler: h,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	for i := range b.lanes {
		b.lanes[i] = make(chan Envelope, cfg.QueueSize)
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		topic := b.RequestTopic("+")
		if token := c.Subscribe(topic, cfg.qos("request"), b.onMessage); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", topic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	b.cli = c
	return b, nil
}

// RequestTopic returns the topic requests of kind are read from.
func (b *Bridge) RequestTopic(kind string) string { return b.cfg.TopicPrefix + "/request/" + kind }

// ResponseTopic returns the default reply topic for kind.
func (b *Bridge) ResponseTopic(kind string) string { return b.cfg.TopicPrefix + "/response/" + kind }

// EventTopic returns the broadcast topic for events of kind.
func (b *Bridge) EventTopic(kind string) string { return b.cfg.TopicPrefix + "/events/" + kind }

func (b *Bridge) onMessage(_ paho.Client, msg paho.Message) {
	var env Envelope
	if err := json.Unmarshal(msg.Payload(), &env); err != nil {
		envelopesTotal.WithLabelValues("unknown", outcomeInvalid).Inc()
		b.log.Warnf("decode envelope on %s: %v", msg.Topic(), err)
		return
	}
	if env.Kind == "" {
		env.Kind = b.kindFromTopic(msg.Topic())
	}
	if env.CorrelationID == "" || env.Kind == "" {
		envelopesTotal.WithLabelValues(env.Kind, outcomeInvalid).Inc()
		b.log.Warnf("envelope on %s missing correlation_id or kind", msg.Topic())
		return
	}
	if env.Expired(b.now()) {
		envelopesTotal.WithLabelValues(env.Kind, outcomeExpired).Inc()
		b.log.Warnf("drop %s %s: %v", env.Kind, env.CorrelationID, ErrExpired)
		return
	}
	select {
	case b.lanes[lane(env.Priority)] <- env:
	default:
		envelopesTotal.WithLabelValues(env.Kind, outcomeRejected).Inc()
		b.reply(env, ErrorResponse(env, ErrOverloaded, b.now()))
	}
}

func (b *Bridge) kindFromTopic(topic string) string {
	prefix := b.cfg.TopicPrefix + "/request/"
	if !strings.HasPrefix(topic, prefix) {
		return ""
	}
	return strings.TrimPrefix(topic, prefix)
}

func lane(p model.Priority) int {
	switch p {
	case model.PriorityUrgent:
		return 0
	case model.PriorityEconomy:
		return 2
	default:
		return 1
	}
}

// Run serves queued requests until ctx is canceled.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		env, ok := b.next(ctx)
		if !ok {
			return nil
		}
		b.serve(ctx, env)
	}
}

// next pops the highest priority envelope, blocking until one is queued.
func (b *Bridge) next(ctx context.Context) (Envelope, bool) {
	for _, l := range b.lanes {
		select {
		case env := <-l:
			return env, true
		default:
		}
	}
	select {
	case <-ctx.Done():
		return Envelope{}, false
	case env := <-b.lanes[0]:
		return env, true
	case env := <-b.lanes[1]:
		return env, true
	case env := <-b.lanes[2]:
		return env, true
	}
}

func (b *Bridge) serve(ctx context.Context, env Envelope) {
	if env.Expired(b.now()) {
		envelopesTotal.WithLabelValues(env.Kind, outcomeExpired).Inc()
		b.log.Warnf("drop queued %s %s: %v", env.Kind, env.CorrelationID, ErrExpired)
		return
	}
	resp := b.handler.Handle(ctx, env)
	resp.CorrelationID = env.CorrelationID
	if resp.Kind == "" {
		resp.Kind = env.Kind
	}
	envelopesTotal.WithLabelValues(env.Kind, outcomeHandled).Inc()
	b.reply(env, resp)
}

func (b *Bridge) reply(env Envelope, resp Response) {
	topic := env.ReplyTo
	if topic == "" {
		topic = b.ResponseTopic(env.Kind)
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		b.log.Errorf("encode response %s: %v", env.CorrelationID, err)
		return
	}
	if err := b.publish(topic, b.cfg.qos("response"), payload); err != nil {
		b.log.Errorf("reply %s: %v", env.CorrelationID, err)
	}
}

// PublishEvent broadcasts v as JSON on the event topic for kind.
func (b *Bridge) PublishEvent(kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.publish(b.EventTopic(kind), b.cfg.qos("event"), payload)
}

func (b *Bridge) publish(topic string, qos byte, payload []byte) error {
	var publishErr error
	for attempt := 0; attempt <= b.cfg.MaxRetries; attempt++ {
		token := b.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			b.log.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		b.log.Warnf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < b.cfg.MaxRetries {
			time.Sleep(b.backoff * time.Duration(1<<attempt))
		}
	}
	publishFailures.Inc()
	return publishErr
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	if b.cli != nil && b.cli.IsConnected() {
		b.cli.Disconnect(250)
	}
}
