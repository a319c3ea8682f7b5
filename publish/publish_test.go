package publish

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"

	"github.com/maastricht-university/ecg-pipeline/config"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}

func (r *recordingWriter) Close() error { r.closed = true; return nil }

func TestKafkaPublishesKeyedMessage(t *testing.T) {
	w := &recordingWriter{}
	k := &Kafka{w: w}
	if err := k.Publish(context.Background(), "A0001", []byte(`{"positive":["AF"]}`)); err != nil {
		t.Fatal(err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "A0001" {
		t.Fatalf("messages = %+v", w.msgs)
	}
	_ = k.Close()
	if !w.closed {
		t.Fatalf("writer not closed")
	}
}

type fakeNATS struct {
	subj string
	data []byte
}

func (f *fakeNATS) Publish(subj string, data []byte) error { f.subj, f.data = subj, data; return nil }
func (f *fakeNATS) Drain() error                           { return nil }

func TestNATSPublish(t *testing.T) {
	conn := &fakeNATS{}
	n := &NATS{conn: conn, subject: "ecg.diagnoses"}
	if err := n.Publish(context.Background(), "A0001", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if conn.subj != "ecg.diagnoses" || string(conn.data) != "x" {
		t.Fatalf("published %q on %q", conn.data, conn.subj)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Publish(ctx, "A0001", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled publish: %v", err)
	}
}

type doneToken struct {
	err      error
	finished bool
}

func (t *doneToken) Wait() bool                     { return t.finished }
func (t *doneToken) WaitTimeout(time.Duration) bool { return t.finished }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

type fakeMQTT struct {
	topic string
	tok   *doneToken
}

func (f *fakeMQTT) Publish(topic string, _ byte, _ bool, _ interface{}) mqtt.Token {
	f.topic = topic
	return f.tok
}
func (f *fakeMQTT) Disconnect(uint) {}

func TestMQTTPublish(t *testing.T) {
	c := &fakeMQTT{tok: &doneToken{finished: true}}
	m := &MQTT{c: c, topic: "ecg/diagnoses", timeout: time.Millisecond}
	if err := m.Publish(context.Background(), "A0001", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if c.topic != "ecg/diagnoses/A0001" {
		t.Fatalf("topic = %q", c.topic)
	}
	c.tok = &doneToken{finished: false}
	if err := m.Publish(context.Background(), "A0001", nil); err == nil {
		t.Fatalf("timed out publish succeeded")
	}
}

func TestNew(t *testing.T) {
	p, err := New(config.Sink{Kind: "none"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(Noop); !ok {
		t.Fatalf("got %T", p)
	}
	if _, err := New(config.Sink{Kind: "carrier-pigeon"}, nil); err == nil {
		t.Fatalf("unknown kind accepted")
	}
	if _, err := New(config.Sink{Kind: "kafka", Topic: "t"}, nil); err == nil {
		t.Fatalf("kafka without brokers accepted")
	}
}
