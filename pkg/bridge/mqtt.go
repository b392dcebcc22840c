package bridge

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
)

// PacketsTopic is the topic (after prefix) events are published to.
const PacketsTopic = "packets"

// Publisher is the subset of paho.Client used by MQTTSink.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// MQTTSink publishes events to an MQTT broker.
type MQTTSink struct {
	Client      Publisher
	TopicPrefix string

	// PublishTimeout bounds waiting for the broker. 0 waits forever.
	PublishTimeout time.Duration

	client paho.Client
}

// ClientOptionsFromURL creates ClientOptions from URL.
// The URL path is used as topic prefix.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")
	if topicPrefix != "" && !strings.HasSuffix(topicPrefix, "/") {
		topicPrefix += "/"
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	if clientID := u.Query().Get("client-id"); clientID != "" {
		opts.SetClientID(clientID)
	}

	return opts, topicPrefix, nil
}

// NewMQTTSinkFromURL connects to the broker specified by URL.
func NewMQTTSinkFromURL(brokerURL string) (*MQTTSink, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetConnectionLostHandler(func(c paho.Client, err error) {
		glog.Warningf("bridge connection lost: %v", err)
	})
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	glog.Infof("bridge connected %s", brokerURL)
	return &MQTTSink{
		Client:         client,
		TopicPrefix:    topicPrefix,
		PublishTimeout: time.Second,
		client:         client,
	}, nil
}

// Publish implements Sink.
func (s *MQTTSink) Publish(ev *PacketEvent) error {
	data, err := proto.Marshal(ev)
	if err != nil {
		return err
	}
	topic := s.TopicPrefix + PacketsTopic
	glog.V(2).Infof("PUB %q seq=%d", topic, ev.Seq)
	token := s.Client.Publish(topic, 0, false, data)
	if s.PublishTimeout > 0 {
		if !token.WaitTimeout(s.PublishTimeout) {
			return fmt.Errorf("publish %q timeout", topic)
		}
	} else {
		token.Wait()
	}
	return token.Error()
}

// Close implements io.Closer.
func (s *MQTTSink) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}
