package ntpsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultApplyBudget = 5 * time.Second

// Querier is implemented by *Client and *SNTPClient.
type Querier interface {
	OffsetAndDelay(ctx context.Context, hostname string) (offset, delay time.Duration, err error)
}

// DetailQuerier returns the full exchange, including the reply packet.
type DetailQuerier interface {
	Query(ctx context.Context, hostname string) (*TimeInfo, error)
}

// ConnectivityGate reports whether a usable network connection exists and
// calls back once when one comes back. The callback must not be invoked from
// inside OnConnectivityRegained itself.
type ConnectivityGate interface {
	HasUsableConnection(wifiOnly bool) bool
	OnConnectivityRegained(callback func())
	CancelWaiting()
}

// WakeLocker keeps the host awake until release is called.
type WakeLocker interface {
	Acquire() (release func())
}

type StateKind int

const (
	Idle StateKind = iota
	AwaitingConnectivity
	InFlight
)

func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case AwaitingConnectivity:
		return "awaiting connectivity"
	case InFlight:
		return "in flight"
	}
	return fmt.Sprintf("StateKind(%d)", int(k))
}

// State is a snapshot of the orchestrator. RequestID names the in-flight or
// pending request and is uuid.Nil when idle.
type State struct {
	Kind      StateKind
	RequestID uuid.UUID
	Pending   *Trigger
}

type Options struct {
	Hostname string

	Querier  Querier
	Detailed DetailQuerier
	Reports  *ReportBuilder
	Setter   ClockSetter
	Gate     ConnectivityGate
	WakeLock WakeLocker

	Timeout     time.Duration // DefaultTimeout when zero
	ApplyBudget time.Duration // DefaultApplyBudget when zero

	// Notify sees every result after it was sent to the caller's channel.
	Notify func(Result)
	Now    func() time.Time
}

type request struct {
	id      uuid.UUID
	trigger Trigger
	ctx     context.Context
	result  chan Result
}

type delivery struct {
	request *request
	result  Result
}

// Orchestrator runs at most one sync attempt at a time. Transitions are
// serialized by mu; attempts run on their own goroutine and results are
// delivered outside the lock.
type Orchestrator struct {
	options Options

	mu       sync.Mutex
	state    StateKind
	inFlight uuid.UUID
	pending  *request
	waitSeq  uint64

	workers sync.WaitGroup
}

func New(options Options) *Orchestrator {
	if options.Querier == nil {
		options.Querier = &Client{Timeout: options.Timeout}
	}
	if options.Detailed == nil {
		if detailed, ok := options.Querier.(DetailQuerier); ok {
			options.Detailed = detailed
		}
	}
	if options.Reports == nil {
		options.Reports = &ReportBuilder{}
	}
	return &Orchestrator{options: options}
}

func (o *Orchestrator) now() time.Time {
	if o.options.Now != nil {
		return o.options.Now()
	}
	return time.Now()
}

func (o *Orchestrator) attemptTimeout() time.Duration {
	timeout := o.options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	budget := o.options.ApplyBudget
	if budget <= 0 {
		budget = DefaultApplyBudget
	}
	return timeout + budget
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := State{Kind: o.state}
	switch o.state {
	case InFlight:
		state.RequestID = o.inFlight
	case AwaitingConnectivity:
		state.RequestID = o.pending.id
		pending := o.pending.trigger
		state.Pending = &pending
	}
	return state
}

// Trigger submits a sync request. The returned channel receives exactly one
// Result. ctx only carries values; cancelling it does not abort the attempt.
func (o *Orchestrator) Trigger(ctx context.Context, trigger Trigger) <-chan Result {
	if trigger.Hostname == "" {
		trigger.Hostname = o.options.Hostname
	}
	if trigger.Action == QueryAndApply {
		trigger.ApplyDirectly = true
	}
	req := &request{
		id:      uuid.New(),
		trigger: trigger,
		ctx:     context.WithoutCancel(ctx),
		result:  make(chan Result, 1),
	}
	debug("Trigger", req.id, trigger.Action, "from", trigger.Source, "for", trigger.Hostname)

	o.mu.Lock()
	var deliveries []delivery
	switch o.state {
	case InFlight:
		deliveries = append(deliveries, o.failure(req, fmt.Errorf("%w: request %s is running", ErrConcurrentSync, o.inFlight)))
	case AwaitingConnectivity:
		superseded := o.pending
		o.pending = nil
		o.state = Idle
		o.waitSeq++
		o.options.Gate.CancelWaiting()
		deliveries = append(deliveries, o.failure(superseded, fmt.Errorf("%w: by %s", ErrSuperseded, req.id)))
		deliveries = append(deliveries, o.evaluate(req)...)
	default:
		deliveries = append(deliveries, o.evaluate(req)...)
	}
	o.mu.Unlock()

	o.deliver(deliveries...)
	return req.result
}

// Wait blocks until every started attempt finished.
func (o *Orchestrator) Wait() {
	o.workers.Wait()
}

// evaluate decides what happens to a request arriving while idle. Callers
// hold mu.
func (o *Orchestrator) evaluate(req *request) []delivery {
	if o.options.Gate == nil || o.options.Gate.HasUsableConnection(wifiPolicy(req.trigger)) {
		o.start(req)
		return nil
	}
	if !req.trigger.Source.passive() {
		return []delivery{o.failure(req, ErrNoConnectivity)}
	}
	o.await(req)
	return nil
}

// Manual triggers bypass the Wi-Fi only policy.
func wifiPolicy(trigger Trigger) bool {
	return trigger.WifiOnly && trigger.Source.passive()
}

func (o *Orchestrator) await(req *request) {
	o.state = AwaitingConnectivity
	o.pending = req
	o.waitSeq++
	seq := o.waitSeq
	o.options.Gate.OnConnectivityRegained(func() {
		o.connectivityRegained(seq)
	})

	// A link that came up before the registration is not a change the gate
	// will report.
	if o.options.Gate.HasUsableConnection(wifiPolicy(req.trigger)) {
		o.pending = nil
		o.waitSeq++
		o.options.Gate.CancelWaiting()
		o.start(req)
		return
	}
	info("Waiting for connectivity before", req.trigger.Action, "of", req.trigger.Hostname)
}

func (o *Orchestrator) connectivityRegained(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != AwaitingConnectivity || seq != o.waitSeq {
		debug("Ignoring stale connectivity callback", seq)
		return
	}

	req := o.pending
	if !o.options.Gate.HasUsableConnection(wifiPolicy(req.trigger)) {
		o.await(req)
		return
	}
	o.pending = nil
	o.options.Gate.CancelWaiting()
	o.start(req)
}

func (o *Orchestrator) start(req *request) {
	o.state = InFlight
	o.inFlight = req.id
	o.workers.Add(1)
	go o.run(req)
}

func (o *Orchestrator) run(req *request) {
	defer o.workers.Done()

	if o.options.WakeLock != nil {
		release := o.options.WakeLock.Acquire()
		defer release()
	}

	ctx, cancel := context.WithTimeout(req.ctx, o.attemptTimeout())
	defer cancel()

	result := o.attempt(ctx, req)

	o.mu.Lock()
	o.state = Idle
	o.inFlight = uuid.Nil
	o.mu.Unlock()

	o.deliver(delivery{request: req, result: result})
}

func (o *Orchestrator) attempt(ctx context.Context, req *request) Result {
	result := Result{RequestID: req.id, Hostname: req.trigger.Hostname}

	if req.trigger.Action == DetailedQuery {
		if o.options.Detailed == nil {
			result.fail(fmt.Errorf("no detailed query backend configured"))
			return result
		}
		timeInfo, err := o.options.Detailed.Query(ctx, req.trigger.Hostname)
		if err != nil {
			result.fail(err)
			return result
		}
		offset, ok := timeInfo.Offset()
		if !ok {
			result.fail(fmt.Errorf("%w: reply is missing timestamps", ErrMalformedPacket))
			return result
		}
		result.succeed(offset, o.now())
		result.Report = o.options.Reports.Build(ctx, timeInfo)
		return result
	}

	offset, delay, err := o.options.Querier.OffsetAndDelay(ctx, req.trigger.Hostname)
	if err != nil {
		result.fail(err)
		return result
	}
	debug("Offset", offset, "delay", delay, "from", req.trigger.Hostname)
	result.succeed(offset, o.now())

	if !req.trigger.applies() {
		return result
	}
	if o.options.Setter == nil {
		result.fail(fmt.Errorf("%w: no clock setter configured", ErrApplyToolMissing))
		return result
	}
	if err := o.options.Setter.Apply(ctx, offset); err != nil {
		result.fail(err)
		return result
	}
	applied := o.now()
	result.AppliedTime = &applied
	return result
}

func (o *Orchestrator) failure(req *request, err error) delivery {
	result := Result{RequestID: req.id, Hostname: req.trigger.Hostname}
	result.fail(err)
	return delivery{request: req, result: result}
}

func (o *Orchestrator) deliver(deliveries ...delivery) {
	for _, d := range deliveries {
		if d.result.Err != nil {
			info("Sync", d.request.id, "of", d.result.Hostname, "finished with", d.result.Status, ":", d.result.Err)
		} else {
			info("Sync", d.request.id, "of", d.result.Hostname, "finished with", d.result.Status)
		}
		d.request.result <- d.result
		if o.options.Notify != nil {
			o.options.Notify(d.result)
		}
	}
}
