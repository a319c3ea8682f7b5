// Package publish forwards finished diagnoses to a message sink.
package publish

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/ecg-pipeline/config"
)

// Publisher delivers one encoded diagnosis. key is the record name.
type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// New connects the sink named by cfg.Kind. "none" and "" yield Noop.
func New(cfg config.Sink, log logrus.FieldLogger) (Publisher, error) {
	switch cfg.Kind {
	case "", "none":
		return Noop{}, nil
	case "nats":
		return NewNATS(cfg.URL, cfg.Topic)
	case "kafka":
		return NewKafka(cfg.Brokers, cfg.Topic)
	case "mqtt":
		return NewMQTT(cfg.URL, cfg.Topic, log)
	}
	return nil, fmt.Errorf("unknown sink kind %q", cfg.Kind)
}

type Noop struct{}

func (Noop) Publish(context.Context, string, []byte) error { return nil }
func (Noop) Close() error                                  { return nil }

// --- NATS ---

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

type NATS struct {
	conn    natsConn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(
		url,
		nats.Name("ecg-pipeline"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return &NATS{conn: nc, subject: subject}, nil
}

func (n *NATS) Publish(ctx context.Context, _ string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.conn.Publish(n.subject, payload)
}

func (n *NATS) Close() error { return n.conn.Drain() }

// --- Kafka ---

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Kafka struct {
	w kafkaWriter
}

func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic must not be empty")
	}
	return &Kafka{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}}, nil
}

func (k *Kafka) Publish(ctx context.Context, key string, payload []byte) error {
	return k.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: payload, Time: time.Now()})
}

func (k *Kafka) Close() error { return k.w.Close() }

// --- MQTT ---

type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

type MQTT struct {
	c       mqttClient
	topic   string
	timeout time.Duration
}

func NewMQTT(broker, topic string, log logrus.FieldLogger) (*MQTT, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("ecg-pipeline-%d", time.Now().Unix()))
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("mqtt connection lost")
	}
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return &MQTT{c: client, topic: topic, timeout: 2 * time.Second}, nil
}

func (m *MQTT) Publish(_ context.Context, key string, payload []byte) error {
	token := m.c.Publish(m.topic+"/"+key, 1, false, payload)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("mqtt publish %s: timeout", key)
	}
	return token.Error()
}

func (m *MQTT) Close() error {
	m.c.Disconnect(250)
	return nil
}
