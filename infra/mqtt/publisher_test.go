package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimcy/SEMDR/core/signals"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type publishedMsg struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	connectErr   error
	publishErr   error
	connected    bool
	disconnected bool
	published    []publishedMsg
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Connect() paho.Token {
	c.connected = c.connectErr == nil
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, publishedMsg{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{err: c.publishErr}
}

func withFakeClient(t *testing.T, fake *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return fake }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestNewPahoPublisherConnects(t *testing.T) {
	fake := &fakeClient{}
	withFakeClient(t, fake)

	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", ClientID: "semdr-test", QoS: 1})
	require.NoError(t, err)
	assert.True(t, fake.connected)

	require.NoError(t, pub.Close())
	assert.True(t, fake.disconnected)
}

func TestNewPahoPublisherConnectError(t *testing.T) {
	withFakeClient(t, &fakeClient{connectErr: errors.New("broker refused")})

	_, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect")
}

func TestPublishSignal(t *testing.T) {
	fake := &fakeClient{}
	withFakeClient(t, fake)

	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883", QoS: 1})
	require.NoError(t, err)

	sig := signals.DemandResponseSignal{
		SignalID: "sig-1",
		DeviceID: "meter-7",
		TargetKW: 12.5,
		Duration: 1,
		Scenario: "REF",
	}
	require.NoError(t, pub.PublishSignal(sig))

	require.Len(t, fake.published, 1)
	msg := fake.published[0]
	assert.Equal(t, "devices/meter-7/control/demand_response", msg.topic)
	assert.Equal(t, byte(1), msg.qos)

	var decoded signals.DemandResponseSignal
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, sig, decoded)
}

func TestPublishSignalError(t *testing.T) {
	fake := &fakeClient{publishErr: errors.New("not authorized")}
	withFakeClient(t, fake)

	pub, err := NewPahoPublisher(Config{Broker: "tcp://localhost:1883"})
	require.NoError(t, err)

	err = pub.PublishSignal(signals.DemandResponseSignal{SignalID: "sig-2", DeviceID: "d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sig-2")
}

func TestMockPublisher(t *testing.T) {
	mock := &MockPublisher{}
	sig := signals.DemandResponseSignal{SignalID: "a", DeviceID: "d"}
	require.NoError(t, mock.PublishSignal(sig))
	require.Len(t, mock.Published(), 1)
	assert.Equal(t, sig, mock.Published()[0])

	mock.Err = errors.New("down")
	require.Error(t, mock.PublishSignal(sig))
	assert.Len(t, mock.Published(), 1)
}
