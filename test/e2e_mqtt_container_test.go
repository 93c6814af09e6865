package test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/resilience/core/model"
	"github.com/kilianp07/resilience/core/resilience"
	"github.com/kilianp07/resilience/infra/logger"
	"github.com/kilianp07/resilience/infra/mqtt"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := `listener 1883
allow_anonymous true
persistence false
log_dest stdout
`
	dir := t.TempDir()
	path := filepath.Join(dir, "mosquitto.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("write conf: %v", err)
	}

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{
			{
				HostFilePath:      path,
				ContainerFilePath: "/mosquitto/config/mosquitto.conf",
				FileMode:          0644,
			},
		},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "1883")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		t.Logf("mosquitto not ready at %s: %v", broker, err)
		t.Skip("Mosquitto not ready after retries")
	}
	return cont, broker
}

func TestPublishSummaryWithMQTTContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()

	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	received := make(chan []byte, 1)
	subOpts := paho.NewClientOptions().AddBroker(broker).SetClientID("reporting-sim")
	sub := paho.NewClient(subOpts)
	if token := sub.Connect(); token.Wait() && token.Error() != nil {
		t.Fatalf("subscriber connect: %v", token.Error())
	}
	defer sub.Disconnect(100)
	if token := sub.Subscribe("site/resilience", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Payload()
	}); token.Wait() && token.Error() != nil {
		t.Fatalf("subscribe: %v", token.Error())
	}

	eng, err := resilience.New(model.ScenarioInputs{
		CriticalLoadKW: []float64{1, 2, 2, 1},
		Fleet: model.GeneratorFleet{Types: []model.GeneratorType{{
			Count: 2, SizeKW: 1, OperationalAvailability: 1, MTTFSteps: 5,
		}}},
		Options: model.EngineOptions{
			MaxOutageSteps: 3, BatteryBins: 1, HydrogenBins: 1,
			StepsPerHour: 1, Workers: 1,
		},
	}, logger.NopLogger{})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	summary, err := eng.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	pub, err := mqtt.NewPahoPublisher(mqtt.Config{
		Enabled: true,
		Broker:  broker,
		Topic:   "site/resilience",
		QoS:     1,
	})
	if err != nil {
		t.Fatalf("publisher: %v", err)
	}
	defer pub.Close()

	payload, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := pub.Publish(payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		var rt model.ResilienceSummary
		if err := json.Unmarshal(got, &rt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if rt.RunID != summary.RunID {
			t.Fatalf("run id mismatch: got %s want %s", rt.RunID, summary.RunID)
		}
		if len(rt.MeanSurvivalByDuration) != 3 {
			t.Fatalf("unexpected summary payload: %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("summary not received on broker")
	}
}
