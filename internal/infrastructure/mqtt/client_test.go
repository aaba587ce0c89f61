package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sqlitelib/internal/crashreport"
	"github.com/nerrad567/sqlitelib/internal/infrastructure/config"
)

// testConfig points at a local Mosquitto broker on 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "sqlitelib-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// connectOrSkip connects to the local broker, skipping when none listens.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port), 500*time.Millisecond)
	if err != nil {
		t.Skipf("mqtt broker not available: %v", err)
	}
	conn.Close()

	cfg.Broker.ClientID = clientID
	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Error(msg string, _ ...any) { l.add("ERROR " + msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("WARN " + msg) }

func (l *recordingLogger) add(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *recordingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

// =============================================================================
// Topics and payloads
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"SystemStatus", topics.SystemStatus(), "sqlitelib/system/status"},
		{"Crash", topics.Crash("inventory"), "sqlitelib/inventory/crash"},
		{"Batch", topics.Batch("inventory"), "sqlitelib/inventory/batch"},
		{"AllCrashes", topics.AllCrashes(), "sqlitelib/+/crash"},
		{"AllBatches", topics.AllBatches(), "sqlitelib/+/batch"},
		{"AllTopics", topics.AllTopics(), "sqlitelib/#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := brokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("brokerURL() = %q, want tcp://127.0.0.1:1883", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := brokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("brokerURL() with TLS = %q, want ssl://127.0.0.1:8883", got)
	}
}

func TestBuildStatusPayload(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	var got statusPayload
	if err := json.Unmarshal(buildStatusPayload("svc", "offline", "graceful_shutdown", now), &got); err != nil {
		t.Fatalf("status payload is not JSON: %v", err)
	}
	want := statusPayload{Status: "offline", ClientID: "svc", Reason: "graceful_shutdown", Timestamp: "2026-10-15T09:30:00Z"}
	if got != want {
		t.Errorf("status payload = %+v, want %+v", got, want)
	}

	online := string(buildStatusPayload("svc", "online", "", now))
	if strings.Contains(online, "reason") {
		t.Errorf("online payload %s should omit reason", online)
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"valid", "sqlitelib/a/crash", []byte("{}"), 1, nil},
		{"nil payload", "sqlitelib/a/crash", nil, 0, nil},
		{"empty topic", "", []byte("{}"), 1, ErrInvalidTopic},
		{"qos too high", "sqlitelib/a/crash", []byte("{}"), 3, ErrInvalidQoS},
		{"payload too large", "sqlitelib/a/crash", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePublish(tt.topic, tt.payload, tt.qos)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("validatePublish() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validatePublish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrashNotification_RoundTrip(t *testing.T) {
	report := crashreport.Report{
		Time:    time.Date(2026, 10, 15, 9, 30, 12, 0, time.FixedZone("CEST", 2*3600)),
		ID:      "0123abcd",
		Message: "UNIQUE constraint failed: T.id",
		Origin:  "executor.ExecuteBatch database=inventory statement=2/2",
		Stack:   "goroutine 1 [running]:",
	}

	n := NewCrashNotification("inventory", report, "/var/lib/crash/CrashReport.txt")
	payload, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(payload), "goroutine") {
		t.Error("crash notification should not carry the stack")
	}

	got, err := ParseCrashNotification(payload)
	if err != nil {
		t.Fatalf("ParseCrashNotification() error = %v", err)
	}
	if !got.Time.Equal(report.Time) {
		t.Errorf("Time = %v, want %v", got.Time, report.Time)
	}
	if got.Database != "inventory" || got.ID != report.ID || got.Origin != report.Origin {
		t.Errorf("ParseCrashNotification() = %+v", got)
	}
}

func TestParseNotification_Invalid(t *testing.T) {
	inputs := []string{`not json`, `{}`, `{"id":"x"}`}
	for _, in := range inputs {
		if _, err := ParseCrashNotification([]byte(in)); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("ParseCrashNotification(%q) error = %v, want ErrInvalidPayload", in, err)
		}
		if _, err := ParseBatchNotification([]byte(in)); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("ParseBatchNotification(%q) error = %v, want ErrInvalidPayload", in, err)
		}
	}
}

func TestParseBatchNotification(t *testing.T) {
	got, err := ParseBatchNotification([]byte(`{"database":"inventory","outcome":"lock_contention","statements":3,"failed_index":1,"duration_ms":12.5}`))
	if err != nil {
		t.Fatalf("ParseBatchNotification() error = %v", err)
	}
	if got.Outcome != "lock_contention" || got.Statements != 3 || got.FailedIndex != 1 {
		t.Errorf("ParseBatchNotification() = %+v", got)
	}
}

// =============================================================================
// Disconnected client
// =============================================================================

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	if (&Client{}).IsConnected() {
		t.Error("IsConnected() should be false for an unconnected client")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() with cancelled context error = %v, want context.Canceled", err)
	}
}

func TestPublish_Disconnected(t *testing.T) {
	client := &Client{}
	err := client.PublishCrashReport("inventory", crashreport.Report{ID: "x"}, "/tmp/r.txt")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishCrashReport() error = %v, want ErrNotConnected", err)
	}
	err = client.PublishBatch(BatchNotification{Database: "inventory", Outcome: "committed"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishBatch() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := &Client{subscriptions: make(map[string]subscription)}
	noop := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
	if err := client.Subscribe("a", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := client.Subscribe("a", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
	if err := client.Subscribe("a", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() disconnected error = %v, want ErrNotConnected", err)
	}
	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", client.SubscriptionCount())
	}
}

func TestDispatch_RecoversPanicsAndLogsErrors(t *testing.T) {
	logger := &recordingLogger{}
	client := &Client{}
	client.SetLogger(logger)

	client.dispatch(func(string, []byte) error { panic("boom") }, "t", nil)
	client.dispatch(func(string, []byte) error { return errors.New("bad") }, "t", nil)
	client.dispatch(func(string, []byte) error { return nil }, "t", nil)

	lines := logger.all()
	if len(lines) != 2 {
		t.Fatalf("logged %d lines, want 2: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "ERROR") || !strings.HasPrefix(lines[1], "WARN") {
		t.Errorf("logged lines = %v, want ERROR then WARN", lines)
	}
}

// =============================================================================
// Broker tests (skipped when no broker is listening)
// =============================================================================

func TestConnect_BrokerRefused(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the connect timeout")
	}
	cfg := testConfig()
	cfg.Broker.Port = 19998

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectAndClose(t *testing.T) {
	client := connectOrSkip(t, "sqlitelib-test-close")

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
}

func TestCrashReportRoundTrip(t *testing.T) {
	sub := connectOrSkip(t, "sqlitelib-test-sub")
	pub := connectOrSkip(t, "sqlitelib-test-pub")

	received := make(chan CrashNotification, 1)
	err := sub.Subscribe(Topics{}.AllCrashes(), 1, func(_ string, payload []byte) error {
		n, err := ParseCrashNotification(payload)
		if err != nil {
			return err
		}
		received <- n
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", sub.SubscriptionCount())
	}

	// Give the subscription time to register.
	time.Sleep(100 * time.Millisecond)

	report := crashreport.Report{Time: time.Now(), ID: "feedc0de", Message: "disk I/O error", Origin: "test"}
	if err := pub.PublishCrashReport("roundtrip", report, "/tmp/CrashReport.txt"); err != nil {
		t.Fatalf("PublishCrashReport() error = %v", err)
	}

	select {
	case n := <-received:
		if n.ID != "feedc0de" || n.Database != "roundtrip" {
			t.Errorf("received %+v", n)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for crash notification")
	}
}

func TestOnDisconnectCallback(t *testing.T) {
	client := connectOrSkip(t, "sqlitelib-test-ondisconnect")

	var called sync.WaitGroup
	called.Add(1)
	client.SetOnDisconnect(func(error) { called.Done() })
	client.handleDisconnect(errors.New("simulated"))
	called.Wait()

	if client.IsConnected() {
		t.Error("IsConnected() = true after handleDisconnect, want false")
	}
}
