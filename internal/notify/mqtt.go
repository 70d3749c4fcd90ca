package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const publishWait = 2 * time.Second

// mqttClient is the slice of the paho client the publisher needs.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher forwards notices and loading changes to an MQTT broker so any
// subscribed presentation client can render them.
type MQTTPublisher struct {
	client mqttClient
	prefix string
	logger *zap.Logger
}

// NewMQTTPublisher publishes under prefix, e.g. "scrapconnect/notices/synced".
func NewMQTTPublisher(client mqttClient, prefix string, logger *zap.Logger) *MQTTPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MQTTPublisher{client: client, prefix: prefix, logger: logger}
}

// NoticeTopic returns the topic notices of kind k are published on.
func NoticeTopic(prefix string, k Kind) string {
	return fmt.Sprintf("%s/notices/%s", prefix, k)
}

// NoticeFilter matches every notice topic under prefix.
func NoticeFilter(prefix string) string {
	return prefix + "/notices/#"
}

// LoadingTopic returns the retained topic carrying the loading indicator.
func LoadingTopic(prefix string) string {
	return prefix + "/loading"
}

// Publish implements Publisher.
func (p *MQTTPublisher) Publish(_ context.Context, n Notice) {
	data, err := json.Marshal(n)
	if err != nil {
		p.logger.Warn("encode notice", zap.String("kind", string(n.Kind)), zap.Error(err))
		return
	}
	p.send(NoticeTopic(p.prefix, n.Kind), false, data)
}

// PublishLoading reports the gateway's loading indicator.
func (p *MQTTPublisher) PublishLoading(loading bool) {
	data, _ := json.Marshal(struct {
		Loading bool `json:"loading"`
	}{Loading: loading})
	p.send(LoadingTopic(p.prefix), true, data)
}

func (p *MQTTPublisher) send(topic string, retained bool, payload []byte) {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishWait) {
		p.logger.Warn("mqtt publish timed out", zap.String("topic", topic))
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Warn("mqtt publish failed", zap.String("topic", topic), zap.Error(err))
	}
}

// DialMQTT connects a paho client to broker.
func DialMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts = opts.SetOrderMatters(false).SetAutoReconnect(true).SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt broker %s: %w", broker, token.Error())
	}
	return client, nil
}
