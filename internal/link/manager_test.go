package link_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	suitelib "github.com/stretchr/testify/suite"

	"github.com/hakerfromrussia/miolink/internal/attrdb"
	"github.com/hakerfromrussia/miolink/internal/device"
	"github.com/hakerfromrussia/miolink/internal/link"
	"github.com/hakerfromrussia/miolink/internal/signal"
)

const testInterval = 10 * time.Millisecond

// fakeTransport is a scripted device.Transport. Tests drive the link
// manager by emitting events on it and asserting on the recorded calls.
type fakeTransport struct {
	events chan device.Event

	mu            sync.Mutex
	connectCalls  []string
	connectErr    error
	onConnect     func(address string)
	discoverCalls int
	disconnects   int

	enableCalls atomic.Int32
	enableErr   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{events: make(chan device.Event, 64)}
}

func (t *fakeTransport) Connect(_ context.Context, address string, _ *device.ConnectOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectErr != nil {
		return t.connectErr
	}
	if t.onConnect != nil {
		t.onConnect(address)
	}
	t.connectCalls = append(t.connectCalls, address)
	return nil
}

func (t *fakeTransport) DiscoverServices() {
	t.mu.Lock()
	t.discoverCalls++
	t.mu.Unlock()
}

func (t *fakeTransport) EnableNotifications(string) error {
	t.enableCalls.Add(1)
	return t.enableErr
}

func (t *fakeTransport) Disconnect() error {
	t.mu.Lock()
	t.disconnects++
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) Events() <-chan device.Event {
	return t.events
}

func (t *fakeTransport) emit(ev device.Event) {
	t.events <- ev
}

func (t *fakeTransport) connectAddresses() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.connectCalls...)
}

func (t *fakeTransport) discoverCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discoverCalls
}

func testCatalog() *device.Catalog {
	catalog := device.NewCatalog()
	svc := catalog.AddService("0000fe40-cc7a-482a-984a-7f2ed5b3e58f")
	svc.AddCharacteristic(attrdb.SensorStreamCharacteristic, 0x0021)
	return catalog
}

type ManagerTestSuite struct {
	suitelib.Suite

	transport *fakeTransport
	publisher *signal.Publisher
	manager   *link.Manager
}

func TestManagerTestSuite(t *testing.T) {
	suitelib.Run(t, new(ManagerTestSuite))
}

func (suite *ManagerTestSuite) SetupTest() {
	suite.transport = newFakeTransport()
	suite.publisher = signal.NewPublisher()
	suite.manager = link.NewManager(suite.transport, suite.publisher, nil, &link.Options{
		RetryInterval: testInterval,
	})
	suite.manager.Start(context.Background())
}

func (suite *ManagerTestSuite) TearDownTest() {
	_ = suite.manager.Disconnect()
}

// eventually wraps the common polling assertion cadence.
func (suite *ManagerTestSuite) eventually(cond func() bool, msg string) {
	suite.Require().Eventually(cond, time.Second, time.Millisecond, msg)
}

// connectAndEstablish drives the manager through connect, link-up and a
// successful discovery pass.
func (suite *ManagerTestSuite) connectAndEstablish(address string) {
	suite.Require().NoError(suite.manager.Connect(address))
	suite.transport.emit(device.Event{Kind: device.EventLinkUp})
	suite.eventually(func() bool { return suite.manager.State() == link.StateConnected }, "link should come up")
	suite.transport.emit(device.Event{Kind: device.EventServices, Catalog: testCatalog()})
	suite.eventually(func() bool { return suite.manager.Catalog() != nil }, "catalog should be populated")
}

func (suite *ManagerTestSuite) TestConnectMovesToConnecting() {
	suite.Require().NoError(suite.manager.Connect("AA:BB:CC:DD:EE:FF"))

	suite.Equal(link.StateConnecting, suite.manager.State())
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, suite.transport.connectAddresses())
}

func (suite *ManagerTestSuite) TestConnectOnlyValidFromDisconnected() {
	suite.Require().NoError(suite.manager.Connect("AA:BB:CC:DD:EE:FF"))

	err := suite.manager.Connect("11:22:33:44:55:66")
	suite.ErrorIs(err, device.ErrAlreadyConnected)
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, suite.transport.connectAddresses())
}

func (suite *ManagerTestSuite) TestAdapterFailureSurfacedNotRetried() {
	suite.transport.connectErr = device.ErrAdapterUnavailable

	err := suite.manager.Connect("AA:BB:CC:DD:EE:FF")
	suite.ErrorIs(err, device.ErrAdapterUnavailable)
	suite.Equal(link.StateDisconnected, suite.manager.State())
	suite.Empty(suite.transport.connectAddresses())
}

func (suite *ManagerTestSuite) TestLinkUpTriggersDiscovery() {
	suite.Require().NoError(suite.manager.Connect("AA:BB:CC:DD:EE:FF"))
	suite.transport.emit(device.Event{Kind: device.EventLinkUp})

	suite.eventually(func() bool { return suite.manager.State() == link.StateConnected }, "link should come up")
	suite.eventually(func() bool { return suite.transport.discoverCount() == 1 }, "discovery should be triggered once")
}

func (suite *ManagerTestSuite) TestDiscoverySuccessArmsSubscriber() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")

	suite.eventually(func() bool { return suite.transport.enableCalls.Load() >= 1 },
		"subscriber should issue enable-notifications")
	suite.Equal(1, suite.manager.Catalog().Len())
}

func (suite *ManagerTestSuite) TestDiscoveryFailureSwallowed() {
	suite.Require().NoError(suite.manager.Connect("AA:BB:CC:DD:EE:FF"))
	suite.transport.emit(device.Event{Kind: device.EventLinkUp})
	suite.eventually(func() bool { return suite.manager.State() == link.StateConnected }, "link should come up")

	suite.transport.emit(device.Event{Kind: device.EventServices, Err: device.ErrNotConnected})

	// No retry, no reconnect, no state change.
	time.Sleep(5 * testInterval)
	suite.Equal(link.StateConnected, suite.manager.State())
	suite.Nil(suite.manager.Catalog())
	suite.Equal(1, suite.transport.discoverCount())
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, suite.transport.connectAddresses())
	suite.Zero(suite.transport.enableCalls.Load())
}

func (suite *ManagerTestSuite) TestDiscoveryResultWithoutCatalogIgnored() {
	suite.Require().NoError(suite.manager.Connect("AA:BB:CC:DD:EE:FF"))
	suite.transport.emit(device.Event{Kind: device.EventLinkUp})
	suite.eventually(func() bool { return suite.manager.State() == link.StateConnected }, "link should come up")

	suite.transport.emit(device.Event{Kind: device.EventServices})

	time.Sleep(5 * testInterval)
	suite.Equal(link.StateConnected, suite.manager.State())
	suite.Nil(suite.manager.Catalog())
	suite.Zero(suite.transport.enableCalls.Load())
}

func (suite *ManagerTestSuite) TestLinkLossReconnectsWithLastAddress() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")

	// The catalog must be cleared before the reconnect call goes out.
	var catalogAtReconnect *device.Catalog
	var sawReconnect atomic.Bool
	suite.transport.mu.Lock()
	suite.transport.onConnect = func(string) {
		catalogAtReconnect = suite.manager.Catalog()
		sawReconnect.Store(true)
	}
	suite.transport.mu.Unlock()

	suite.transport.emit(device.Event{Kind: device.EventLinkDown})

	suite.eventually(func() bool { return sawReconnect.Load() }, "exactly one reconnect should follow link loss")
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF", "AA:BB:CC:DD:EE:FF"}, suite.transport.connectAddresses())
	suite.Nil(catalogAtReconnect)
	suite.Equal(link.StateConnecting, suite.manager.State())
}

func (suite *ManagerTestSuite) TestReconnectionCycleRearmsSubscriber() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")
	suite.transport.emit(sensorFrame(150, 50))
	suite.eventually(func() bool { return suite.manager.Signal() == signal.CodeRight }, "frame should classify")

	// Drop and re-establish; discovery runs again and the subscriber is
	// re-armed for the new session.
	suite.transport.emit(device.Event{Kind: device.EventLinkDown})
	suite.transport.emit(device.Event{Kind: device.EventLinkUp})
	suite.eventually(func() bool { return suite.transport.discoverCount() == 2 }, "discovery should run for new session")

	before := suite.transport.enableCalls.Load()
	suite.transport.emit(device.Event{Kind: device.EventServices, Catalog: testCatalog()})
	suite.eventually(func() bool { return suite.transport.enableCalls.Load() > before },
		"subscriber should be re-armed after reconnection")
}

func (suite *ManagerTestSuite) TestNotificationsClassifyAndPublish() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")

	suite.transport.emit(sensorFrame(150, 50))
	suite.eventually(func() bool { return suite.manager.Signal() == signal.CodeRight }, "right frame should publish RIGHT")

	suite.transport.emit(sensorFrame(150, 50))
	suite.transport.emit(sensorFrame(50, 50))
	suite.eventually(func() bool { return suite.manager.Signal() == signal.CodeStop }, "idle frame should publish STOP")
}

func (suite *ManagerTestSuite) TestIgnoresUnrelatedCharacteristics() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")

	suite.transport.emit(device.Event{
		Kind: device.EventNotification,
		Char: attrdb.MioMeasurement,
		Data: []byte{150, 50},
	})
	suite.transport.emit(device.Event{
		Kind: device.EventNotification,
		Char: attrdb.SensorStreamCharacteristic,
		Data: []byte{200},
	})

	time.Sleep(5 * testInterval)
	suite.Equal(signal.CodeUnspecified, suite.manager.Signal())
}

func (suite *ManagerTestSuite) TestSubscriberStopsAfterFirstValidFrame() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")
	suite.eventually(func() bool { return suite.transport.enableCalls.Load() >= 1 },
		"subscriber should start retrying")

	suite.transport.emit(sensorFrame(150, 50))
	suite.eventually(func() bool { return suite.manager.Signal() == signal.CodeRight }, "frame should be observed")

	// Let the retry loop notice the frame, then check the count stays flat.
	time.Sleep(3 * testInterval)
	count := suite.transport.enableCalls.Load()
	time.Sleep(5 * testInterval)
	suite.Equal(count, suite.transport.enableCalls.Load())
}

func (suite *ManagerTestSuite) TestDisconnectIsTerminal() {
	suite.connectAndEstablish("AA:BB:CC:DD:EE:FF")
	suite.transport.emit(sensorFrame(50, 150))
	suite.eventually(func() bool { return suite.manager.Signal() == signal.CodeLeft }, "frame should classify")

	suite.Require().NoError(suite.manager.Disconnect())

	suite.Equal(link.StateDisconnected, suite.manager.State())
	suite.Nil(suite.manager.Catalog())

	// No reconnection follows and the published signal freezes.
	suite.Equal([]string{"AA:BB:CC:DD:EE:FF"}, suite.transport.connectAddresses())
	suite.Equal(signal.CodeLeft, suite.manager.Signal())

	suite.transport.mu.Lock()
	disconnects := suite.transport.disconnects
	suite.transport.mu.Unlock()
	suite.Equal(1, disconnects)
}

func sensorFrame(s1, s2 byte) device.Event {
	return device.Event{
		Kind: device.EventNotification,
		Char: attrdb.SensorStreamCharacteristic,
		Data: []byte{s1, s2},
	}
}
