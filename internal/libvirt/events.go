package libvirt

import (
	"context"
	"strconv"
	"sync"

	"github.com/digitalocean/go-libvirt"
	"go.uber.org/zap"
)

// EventID selects the kind of domain event to subscribe to
// (virDomainEventID).
type EventID int32

const (
	EventLifecycle     EventID = 0
	EventReboot        EventID = 1
	EventRTCChange     EventID = 2
	EventWatchdog      EventID = 3
	EventIOError       EventID = 4
	EventGraphics      EventID = 5
	EventIOErrorReason EventID = 6
	EventControlError  EventID = 7
)

var eventIDNames = [...]string{
	"lifecycle",
	"reboot",
	"rtc-change",
	"watchdog",
	"io-error",
	"graphics",
	"io-error-reason",
	"control-error",
}

func (id EventID) String() string {
	if id >= 0 && int(id) < len(eventIDNames) {
		return eventIDNames[id]
	}
	return "event-" + strconv.Itoa(int(id))
}

// ParseEventID returns the EventID named s, e.g. "rtc-change".
func ParseEventID(s string) (EventID, error) {
	for i, name := range eventIDNames {
		if name == s {
			return EventID(i), nil
		}
	}
	return 0, argumentError("", "unknown event %q", s)
}

func (id EventID) valid() bool {
	return id >= EventLifecycle && id <= EventControlError
}

// Event is one domain event. Exactly one of the detail fields is set,
// according to ID; reboot and control-error events carry no details.
type Event struct {
	ID     EventID
	Domain *Domain

	Lifecycle *LifecycleEvent
	RTCOffset int64
	Watchdog  *WatchdogEvent
	IOError   *IOErrorEvent
	Graphics  *GraphicsEvent
}

// LifecycleEvent reports a domain lifecycle transition.
type LifecycleEvent struct {
	Event  int32
	Detail int32
}

func (e LifecycleEvent) String() string {
	return LifecycleEventName(e.Event) + " (" + LifecycleDetailName(e.Event, e.Detail) + ")"
}

// WatchdogEvent reports a fired guest watchdog and the action taken.
type WatchdogEvent struct {
	Action int32
}

// IOErrorEvent reports a failed disk I/O. Reason is only set for
// io-error-reason events.
type IOErrorEvent struct {
	SrcPath  string
	DevAlias string
	Action   int32
	Reason   string
}

// GraphicsEvent reports a graphics client connecting or disconnecting.
type GraphicsEvent struct {
	Phase      int32
	Local      GraphicsAddress
	Remote     GraphicsAddress
	AuthScheme string
	Subject    []GraphicsSubject
}

// GraphicsAddress is one end of a graphics connection.
type GraphicsAddress struct {
	Family  int32
	Node    string
	Service string
}

// GraphicsSubject is one identity of an authenticated graphics client.
type GraphicsSubject struct {
	Type string
	Name string
}

// EventHandler receives domain events. Handlers for one registration are
// called sequentially from a dedicated goroutine.
type EventHandler func(Event)

// LifecycleHandler receives legacy lifecycle callbacks.
type LifecycleHandler func(dom *Domain, event LifecycleEvent)

// Lifecycle event types (virDomainEventType).
const (
	LifecycleDefined     int32 = 0
	LifecycleUndefined   int32 = 1
	LifecycleStarted     int32 = 2
	LifecycleSuspended   int32 = 3
	LifecycleResumed     int32 = 4
	LifecycleStopped     int32 = 5
	LifecycleShutdown    int32 = 6
	LifecyclePMSuspended int32 = 7
	LifecycleCrashed     int32 = 8
)

// Lifecycle event details, grouped by event type.
const (
	DefinedAdded        int32 = 0
	DefinedUpdated      int32 = 1
	DefinedRenamed      int32 = 2
	DefinedFromSnapshot int32 = 3

	UndefinedRemoved int32 = 0
	UndefinedRenamed int32 = 1

	StartedBooted       int32 = 0
	StartedMigrated     int32 = 1
	StartedRestored     int32 = 2
	StartedFromSnapshot int32 = 3
	StartedWakeup       int32 = 4

	SuspendedPaused       int32 = 0
	SuspendedMigrated     int32 = 1
	SuspendedIOError      int32 = 2
	SuspendedWatchdog     int32 = 3
	SuspendedRestored     int32 = 4
	SuspendedFromSnapshot int32 = 5
	SuspendedAPIError     int32 = 6

	ResumedUnpaused     int32 = 0
	ResumedMigrated     int32 = 1
	ResumedFromSnapshot int32 = 2

	StoppedShutdown     int32 = 0
	StoppedDestroyed    int32 = 1
	StoppedCrashed      int32 = 2
	StoppedMigrated     int32 = 3
	StoppedSaved        int32 = 4
	StoppedFailed       int32 = 5
	StoppedFromSnapshot int32 = 6

	ShutdownFinished int32 = 0
)

var lifecycleNames = [...]string{
	"defined", "undefined", "started", "suspended", "resumed",
	"stopped", "shutdown", "pmsuspended", "crashed",
}

var lifecycleDetailNames = map[int32][]string{
	LifecycleDefined:   {"added", "updated", "renamed", "from snapshot"},
	LifecycleUndefined: {"removed", "renamed"},
	LifecycleStarted:   {"booted", "migrated", "restored", "from snapshot", "wakeup"},
	LifecycleSuspended: {"paused", "migrated", "ioerror", "watchdog", "restored", "from snapshot", "api error"},
	LifecycleResumed:   {"unpaused", "migrated", "from snapshot"},
	LifecycleStopped:   {"shutdown", "destroyed", "crashed", "migrated", "saved", "failed", "from snapshot"},
	LifecycleShutdown:  {"finished"},
}

// LifecycleEventName names a lifecycle event type.
func LifecycleEventName(event int32) string {
	if event >= 0 && int(event) < len(lifecycleNames) {
		return lifecycleNames[event]
	}
	return "unknown"
}

// LifecycleDetailName names the detail of a lifecycle event.
func LifecycleDetailName(event, detail int32) string {
	names := lifecycleDetailNames[event]
	if detail >= 0 && int(detail) < len(names) {
		return names[detail]
	}
	return "unknown"
}

// Watchdog actions (virDomainEventWatchdogAction).
const (
	WatchdogNone      int32 = 0
	WatchdogPause     int32 = 1
	WatchdogReset     int32 = 2
	WatchdogPoweroff  int32 = 3
	WatchdogShutdown  int32 = 4
	WatchdogDebug     int32 = 5
	WatchdogInjectNMI int32 = 6
)

// I/O error actions (virDomainEventIOErrorAction).
const (
	IOErrorNone   int32 = 0
	IOErrorPause  int32 = 1
	IOErrorReport int32 = 2
)

// Graphics phases (virDomainEventGraphicsPhase) and address families
// (virDomainEventGraphicsAddressType).
const (
	GraphicsConnect    int32 = 0
	GraphicsInitialize int32 = 1
	GraphicsDisconnect int32 = 2

	GraphicsAddressIPv4 int32 = 0
	GraphicsAddressIPv6 int32 = 1
	GraphicsAddressUnix int32 = 2
)

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) stop() {
	s.cancel()
	<-s.done
}

// eventRegistry tracks the live event subscriptions of a connection.
// Once closed it refuses new subscriptions.
type eventRegistry struct {
	mu        sync.Mutex
	nextID    int
	subs      map[int]*subscription
	lifecycle *subscription
	closed    bool
}

func newEventRegistry() *eventRegistry {
	return &eventRegistry{nextID: 1, subs: make(map[int]*subscription)}
}

// add stores s and returns its callback ID, or false when the registry has
// been closed.
func (r *eventRegistry) add(s *subscription) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, false
	}
	id := r.nextID
	r.nextID++
	r.subs[id] = s
	return id, true
}

func (r *eventRegistry) remove(id int) (*subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.subs[id]
	delete(r.subs, id)
	return s, ok
}

func (r *eventRegistry) hasLifecycle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lifecycle != nil
}

// setLifecycle installs s as the lifecycle subscription. It fails when one
// is already installed or the registry has been closed.
func (r *eventRegistry) setLifecycle(s *subscription) (ok, closed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, true
	}
	if r.lifecycle != nil {
		return false, false
	}
	r.lifecycle = s
	return true, false
}

func (r *eventRegistry) closeAll() {
	r.mu.Lock()
	r.closed = true
	subs := make([]*subscription, 0, len(r.subs)+1)
	for id, s := range r.subs {
		subs = append(subs, s)
		delete(r.subs, id)
	}
	if r.lifecycle != nil {
		subs = append(subs, r.lifecycle)
		r.lifecycle = nil
	}
	r.mu.Unlock()

	for _, s := range subs {
		s.stop()
	}
}

// discard cancels a subscription that was never handed to a goroutine and
// drains ch until the producer closes it.
func discard[T any](cancel context.CancelFunc, ch <-chan T) {
	cancel()
	go func() {
		for range ch {
		}
	}()
}

// RegisterDomainEvent subscribes handler to events of kind id, for dom only
// or for every domain when dom is nil. It returns the callback ID to pass to
// DeregisterDomainEvent.
//
// The daemon is asked for events of every domain and the ones for other
// domains are dropped here.
func (c *Conn) RegisterDomainEvent(id EventID, dom *Domain, handler EventHandler) (int, error) {
	const fn = "virConnectDomainEventRegisterAny"
	if !id.valid() {
		return 0, argumentError(fn, "unknown event id %d", id)
	}
	if handler == nil {
		return 0, argumentError(fn, "handler must not be nil")
	}
	rpc, err := c.client(fn)
	if err != nil {
		return 0, err
	}

	var filter libvirt.OptDomain
	if dom != nil {
		filter = libvirt.OptDomain{dom.dom}
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := rpc.SubscribeEvents(ctx, libvirt.DomainEventID(id), filter)
	if err != nil {
		cancel()
		return 0, operationError(fn, err)
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	callbackID, ok := c.events.add(sub)
	if !ok {
		discard(cancel, ch)
		return 0, closedError(fn)
	}
	c.log.Debug("subscribed to domain events",
		zap.Stringer("event", id), zap.Int("callbackID", callbackID))

	go func() {
		defer close(sub.done)
		for msg := range ch {
			ev, ok := c.convertEvent(msg)
			if !ok {
				c.log.Warn("dropping unrecognized domain event",
					zap.Stringer("event", id), zap.Any("message", msg))
				continue
			}
			if dom != nil && (ev.Domain == nil || ev.Domain.dom.UUID != dom.dom.UUID) {
				continue
			}
			handler(ev)
		}
	}()

	return callbackID, nil
}

// DeregisterDomainEvent cancels the subscription with the given callback
// ID and waits for its handler to return. It must not be called from the
// handler being deregistered.
func (c *Conn) DeregisterDomainEvent(callbackID int) error {
	const fn = "virConnectDomainEventDeregisterAny"
	if _, err := c.client(fn); err != nil {
		return err
	}
	sub, ok := c.events.remove(callbackID)
	if !ok {
		return argumentError(fn, "no event callback with id %d", callbackID)
	}
	sub.stop()
	c.log.Debug("unsubscribed from domain events", zap.Int("callbackID", callbackID))
	return nil
}

// RegisterLifecycle installs the single legacy lifecycle callback.
func (c *Conn) RegisterLifecycle(handler LifecycleHandler) error {
	const fn = "virConnectDomainEventRegister"
	if handler == nil {
		return argumentError(fn, "handler must not be nil")
	}
	rpc, err := c.client(fn)
	if err != nil {
		return err
	}
	if c.events.hasLifecycle() {
		return argumentError(fn, "a lifecycle callback is already registered")
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := rpc.LifecycleEvents(ctx)
	if err != nil {
		cancel()
		return operationError(fn, err)
	}

	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	if ok, closed := c.events.setLifecycle(sub); !ok {
		discard(cancel, ch)
		if closed {
			return closedError(fn)
		}
		return argumentError(fn, "a lifecycle callback is already registered")
	}

	go func() {
		defer close(sub.done)
		for msg := range ch {
			handler(c.domain(msg.Dom), LifecycleEvent{Event: msg.Event, Detail: msg.Detail})
		}
	}()
	return nil
}

// DeregisterLifecycle removes the legacy lifecycle callback.
func (c *Conn) DeregisterLifecycle() error {
	const fn = "virConnectDomainEventDeregister"
	if _, err := c.client(fn); err != nil {
		return err
	}

	c.events.mu.Lock()
	sub := c.events.lifecycle
	c.events.lifecycle = nil
	c.events.mu.Unlock()

	if sub == nil {
		return argumentError(fn, "no lifecycle callback is registered")
	}
	sub.stop()
	return nil
}

// convertEvent turns a go-libvirt event message into an Event.
func (c *Conn) convertEvent(msg interface{}) (Event, bool) {
	switch m := msg.(type) {
	case *libvirt.DomainEventCallbackLifecycleMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackLifecycleMsg:
		return Event{
			ID:        EventLifecycle,
			Domain:    c.domain(m.Msg.Dom),
			Lifecycle: &LifecycleEvent{Event: m.Msg.Event, Detail: m.Msg.Detail},
		}, true

	case *libvirt.DomainEventCallbackRebootMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackRebootMsg:
		return Event{ID: EventReboot, Domain: c.domain(m.Msg.Dom)}, true

	case *libvirt.DomainEventCallbackRtcChangeMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackRtcChangeMsg:
		return Event{ID: EventRTCChange, Domain: c.domain(m.Msg.Dom), RTCOffset: m.Msg.Offset}, true

	case *libvirt.DomainEventCallbackWatchdogMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackWatchdogMsg:
		return Event{
			ID:       EventWatchdog,
			Domain:   c.domain(m.Msg.Dom),
			Watchdog: &WatchdogEvent{Action: m.Msg.Action},
		}, true

	case *libvirt.DomainEventCallbackIOErrorMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackIOErrorMsg:
		return Event{
			ID:     EventIOError,
			Domain: c.domain(m.Msg.Dom),
			IOError: &IOErrorEvent{
				SrcPath:  m.Msg.SrcPath,
				DevAlias: m.Msg.DevAlias,
				Action:   m.Msg.Action,
			},
		}, true

	case *libvirt.DomainEventCallbackIOErrorReasonMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackIOErrorReasonMsg:
		return Event{
			ID:     EventIOErrorReason,
			Domain: c.domain(m.Msg.Dom),
			IOError: &IOErrorEvent{
				SrcPath:  m.Msg.SrcPath,
				DevAlias: m.Msg.DevAlias,
				Action:   m.Msg.Action,
				Reason:   m.Msg.Reason,
			},
		}, true

	case *libvirt.DomainEventCallbackGraphicsMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackGraphicsMsg:
		g := &GraphicsEvent{
			Phase:      m.Msg.Phase,
			Local:      GraphicsAddress{Family: m.Msg.Local.Family, Node: m.Msg.Local.Node, Service: m.Msg.Local.Service},
			Remote:     GraphicsAddress{Family: m.Msg.Remote.Family, Node: m.Msg.Remote.Node, Service: m.Msg.Remote.Service},
			AuthScheme: m.Msg.AuthScheme,
		}
		for _, s := range m.Msg.Subject {
			g.Subject = append(g.Subject, GraphicsSubject{Type: s.Type, Name: s.Name})
		}
		return Event{ID: EventGraphics, Domain: c.domain(m.Msg.Dom), Graphics: g}, true

	case *libvirt.DomainEventCallbackControlErrorMsg:
		return c.convertEvent(*m)
	case libvirt.DomainEventCallbackControlErrorMsg:
		return Event{ID: EventControlError, Domain: c.domain(m.Msg.Dom)}, true
	}
	return Event{}, false
}
