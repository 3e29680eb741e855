package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"rydin/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingAcker struct {
	acked    int
	nacked   int
	requeued bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeued = requeue
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestClient(buf *bytes.Buffer, timeout time.Duration) *Client {
	return &Client{logger: logger.NewWithWriter("bucket-worker", buf), handlerTimeout: timeout}
}

func lastEntry(t *testing.T, buf *bytes.Buffer) logger.LogEntry {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var e logger.LogEntry
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &e); err != nil {
		t.Fatalf("not a JSON line: %v (%s)", err, buf.String())
	}
	return e
}

func TestSettleAcksOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	client := newTestClient(&buf, time.Second)
	acker := &recordingAcker{}

	client.settle(context.Background(), "bucket_requests", amqp.Delivery{Acknowledger: acker}, func(context.Context, amqp.Delivery) error {
		return nil
	})
	if acker.acked != 1 || acker.nacked != 0 {
		t.Fatalf("acker = %+v", acker)
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected log output: %s", buf.String())
	}
}

func TestSettleLogsDroppedDelivery(t *testing.T) {
	var buf bytes.Buffer
	client := newTestClient(&buf, time.Second)
	acker := &recordingAcker{}
	d := amqp.Delivery{Acknowledger: acker, RoutingKey: "bucket.generate.manual", MessageId: "m-1"}

	client.settle(context.Background(), "bucket_requests", d, func(context.Context, amqp.Delivery) error {
		return errors.New("bad body")
	})
	if acker.nacked != 1 || acker.requeued {
		t.Fatalf("acker = %+v", acker)
	}

	e := lastEntry(t, &buf)
	if e.Level != "WARN" || e.Action != "rabbitmq_delivery_dropped" || e.Error == nil || e.Error.Msg != "bad body" {
		t.Fatalf("entry = %+v", e)
	}
	details, _ := e.Details.(map[string]any)
	if details["queue"] != "bucket_requests" || details["routing_key"] != "bucket.generate.manual" || details["message_id"] != "m-1" {
		t.Fatalf("details = %+v", details)
	}
}

func TestSettleAppliesHandlerTimeout(t *testing.T) {
	var buf bytes.Buffer
	client := newTestClient(&buf, 20*time.Millisecond)
	acker := &recordingAcker{}

	waitForDeadline := func(ctx context.Context, _ amqp.Delivery) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	}

	start := time.Now()
	client.settle(context.Background(), "bucket_requests", amqp.Delivery{Acknowledger: acker}, waitForDeadline)
	if time.Since(start) > time.Second {
		t.Fatal("handler timeout not applied")
	}
	if acker.nacked != 1 || !acker.requeued {
		t.Fatalf("first timeout should be requeued: %+v", acker)
	}
	if e := lastEntry(t, &buf); e.Action != "rabbitmq_delivery_requeued" {
		t.Fatalf("entry = %+v", e)
	}

	// the redelivered copy is not retried again
	acker = &recordingAcker{}
	client.settle(context.Background(), "bucket_requests", amqp.Delivery{Acknowledger: acker, Redelivered: true}, waitForDeadline)
	if acker.nacked != 1 || acker.requeued {
		t.Fatalf("second timeout should be dropped: %+v", acker)
	}
	if e := lastEntry(t, &buf); e.Action != "rabbitmq_delivery_dropped" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestShouldRequeue(t *testing.T) {
	stopped, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name        string
		ctx         context.Context
		err         error
		redelivered bool
		want        bool
	}{
		{"shutdown", stopped, context.Canceled, true, true},
		{"first timeout", context.Background(), context.DeadlineExceeded, false, true},
		{"wrapped timeout", context.Background(), errors.Join(errors.New("create slot"), context.DeadlineExceeded), false, true},
		{"repeated timeout", context.Background(), context.DeadlineExceeded, true, false},
		{"handler error", context.Background(), errors.New("bad body"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRequeue(tt.ctx, tt.err, tt.redelivered); got != tt.want {
				t.Fatalf("shouldRequeue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientDefaultsHandlerTimeout(t *testing.T) {
	client := &Client{}
	if client.timeout() != defaultHandlerTimeout {
		t.Fatalf("timeout = %v", client.timeout())
	}
}

func TestTopologyBoundsEventQueues(t *testing.T) {
	bindings := topology(eventRetention{ttl: time.Hour, maxLength: 500})
	if len(bindings) != 3 {
		t.Fatalf("bindings = %d", len(bindings))
	}
	for _, b := range bindings {
		switch b.queue {
		case "bucket_requests":
			if b.args != nil {
				t.Fatalf("work queue must not expire messages: %+v", b.args)
			}
		default:
			if b.args["x-message-ttl"] != int64(3600000) || b.args["x-max-length"] != int64(500) {
				t.Fatalf("%s args = %+v", b.queue, b.args)
			}
		}
	}

	if unbounded := topology(eventRetention{}); unbounded[0].args != nil {
		t.Fatalf("zero retention should declare plain queues: %+v", unbounded[0].args)
	}
}
