// Command notice-tail subscribes to the sync client's MQTT notices and prints them.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"scrapconnect/sync-client/internal/logging"
	"scrapconnect/sync-client/internal/notify"
)

func main() {
	brokerAddr := flag.String("broker", "tcp://localhost:1883", "MQTT broker address, e.g. tcp://localhost:1883")
	prefix := flag.String("prefix", "scrapconnect", "Topic prefix used by the sync client")
	level := flag.String("log-level", "info", "Log level")

	flag.Parse()

	logger, err := logging.New(*level, "development")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	clientID := fmt.Sprintf("notice-tail-%d", time.Now().UnixNano())
	client, err := notify.DialMQTT(*brokerAddr, clientID)
	if err != nil {
		logger.Fatal("failed to connect to broker", zap.Error(err))
	}
	logger.Info("connected to MQTT broker", zap.String("broker", *brokerAddr), zap.String("client_id", clientID))

	filters := map[string]byte{
		notify.NoticeFilter(*prefix): 0,
		notify.LoadingTopic(*prefix): 0,
	}
	token := client.SubscribeMultiple(filters, func(_ mqtt.Client, msg mqtt.Message) {
		printMessage(logger, *prefix, msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		logger.Fatal("subscribe failed", zap.Error(token.Error()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("received shutdown signal, disconnecting")
	client.Disconnect(250)
}

func printMessage(logger *zap.Logger, prefix, topic string, payload []byte) {
	if topic == notify.LoadingTopic(prefix) {
		var state struct {
			Loading bool `json:"loading"`
		}
		if err := json.Unmarshal(payload, &state); err != nil {
			logger.Warn("loading payload decode failed", zap.String("topic", topic), zap.Error(err))
			return
		}
		logger.Info("loading", zap.Bool("loading", state.Loading))
		return
	}

	var n notify.Notice
	if err := json.Unmarshal(payload, &n); err != nil {
		logger.Warn("notice payload decode failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	logger.Info(n.Message,
		zap.String("kind", string(n.Kind)),
		zap.String("operation", n.Operation),
		zap.Time("at", n.At),
	)
}
