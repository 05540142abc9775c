// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package network

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/internal/rescue"
	"github.com/flowd/flowd/logger"
)

// ExitStatus is how a Run call concluded.
type ExitStatus string

const (
	ExitOK        ExitStatus = "ok"
	ExitErrored   ExitStatus = "errored"
	ExitDeadlock  ExitStatus = "deadlock"
	ExitCancelled ExitStatus = "cancelled"
)

// Result is what Run returns once every component has terminated (or was
// abandoned after a grace period following cancellation).
type Result struct {
	Status     ExitStatus
	Errors     []error
	Deadlocked []string
}

// Run validates the graph, activates every component concurrently, and
// blocks until the network reaches quiescence: every component has
// terminated and no connection still carries packets a live component
// could read. ctx governs the whole run; cancelling it requests
// termination (see Terminate).
func (n *Network) Run(ctx context.Context) (*Result, error) {
	n.mu.Lock()
	if n.State() != Idle {
		n.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	if err := n.validateLocked(); err != nil {
		n.mu.Unlock()
		return nil, err
	}
	n.materializeLocked()

	runCtx, cancel := context.WithCancel(ctx)
	n.ctx = runCtx
	n.cancel = cancel
	n.runState.Store(int32(Running))

	names := make([]string, len(n.order))
	copy(names, n.order)
	portsByName := make(map[string]*component.Ports, len(names))
	for _, name := range names {
		inst := n.components[name]
		portsByName[name] = n.buildPortsLocked(name, inst)
	}
	n.mu.Unlock()

	n.emit(Event{Type: EventNetworkStarted})

	stopMonitor := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		n.runDeadlockMonitor(stopMonitor)
	}()

	for _, name := range names {
		n.wg.Add(1)
		go n.runComponent(name, portsByName[name])
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-runCtx.Done():
		select {
		case <-done:
		case <-time.After(common.DefaultTerminateGrace):
			n.abandonRemaining()
		}
	}

	close(stopMonitor)
	<-monitorDone

	return n.finish(), nil
}

// Terminate requests that every running component observe cancellation
// and wind down. It returns immediately; Run's caller observes the
// outcome through Run's return value.
func (n *Network) Terminate() {
	n.mu.Lock()
	cancel := n.cancel
	if n.State() == Running {
		n.runState.Store(int32(Terminating))
	}
	n.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (n *Network) runComponent(name string, ports *component.Ports) {
	defer n.wg.Done()
	inst, _ := n.Component(name)

	defer func() {
		if err, ok := rescue.Recover(); ok {
			n.fail(inst, name, ports, err)
		}
	}()

	inst.SetState(component.Active)
	n.emit(Event{Type: EventComponentStarted, Component: name})

	body, err := inst.Desc.NewBody(n.componentOptsFor(name))
	if err != nil {
		n.fail(inst, name, ports, err)
		return
	}

	if err := body.Run(n.ctx, ports); err != nil {
		n.fail(inst, name, ports, err)
		return
	}

	ports.CloseAllIn()
	ports.CloseAllOut()
	inst.SetState(component.Terminated)
	n.emit(Event{Type: EventComponentTerminated, Component: name})
}

func (n *Network) componentOptsFor(name string) common.Options {
	n.mu.Lock()
	defer n.mu.Unlock()
	if opts, ok := n.componentOpts[name]; ok {
		return opts
	}
	return common.NewOptions()
}

func (n *Network) fail(inst *component.Instance, name string, ports *component.Ports, err error) {
	ports.CloseAllIn()
	ports.CloseAllOut()
	inst.Fail(err)
	n.recordErr(name, err)
	n.emit(Event{Type: EventComponentErrored, Component: name, Message: err.Error()})
}

func (n *Network) recordErr(component string, err error) {
	n.errMu.Lock()
	defer n.errMu.Unlock()
	n.errs = multierror.Append(n.errs, wrapf(err, component))
	if n.State() == Running {
		n.runState.Store(int32(Terminating))
	}
}

// abandonRemaining marks every component that has not reached a terminal
// state as errored with a leak note, used when a Terminate grace period
// expires before all components returned.
func (n *Network) abandonRemaining() {
	for _, name := range n.ComponentNames() {
		inst, ok := n.Component(name)
		if !ok || inst.State().Terminal() {
			continue
		}
		err := errAbandoned
		inst.Fail(err)
		n.recordErr(name, err)
		logger.Warnf("network %s: component %s abandoned after cancellation grace period", n.name, name)
	}
}

func (n *Network) finish() *Result {
	n.errMu.Lock()
	errs := n.errs
	n.errMu.Unlock()

	status := ExitOK
	switch {
	case n.deadlocked.Load() && n.opts.StrictDeadlock:
		status = ExitDeadlock
	case n.ctx.Err() != nil:
		status = ExitCancelled
	case errs != nil:
		status = ExitErrored
	}

	if status == ExitErrored || status == ExitCancelled {
		n.runState.Store(int32(Errored))
	} else {
		n.runState.Store(int32(Terminated))
	}
	n.emit(Event{Type: EventNetworkTerminated, Message: string(status)})

	result := &Result{Status: status}
	if errs != nil {
		result.Errors = errs.Errors
	}
	if set := n.deadlockSet.Load(); set != nil {
		result.Deadlocked = *set
	}
	return result
}

func (n *Network) runDeadlockMonitor(stop <-chan struct{}) {
	const tick = 15 * time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	stableRounds := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			suspended, quiet := n.sampleSuspendedReceivers()
			if !quiet {
				stableRounds = 0
				continue
			}
			stableRounds++
			if stableRounds < 2 || len(suspended) == 0 {
				continue
			}
			n.resolveDeadlock(suspended)
			return
		}
	}
}

// sampleSuspendedReceivers reports the non-terminal components currently
// blocked in send or receive, and whether every other non-terminal
// component is also blocked rather than actively running — i.e. nothing
// in the network could currently produce more input for anyone. A
// component stuck in SuspendedReceive is waiting for a packet that will
// never arrive; one stuck in SuspendedSend is waiting for room in a full
// connection that will never drain because its consumer is itself part
// of the same stuck set. Both are equally valid deadlock candidates.
func (n *Network) sampleSuspendedReceivers() (suspended []string, quiet bool) {
	quiet = true
	for _, name := range n.ComponentNames() {
		inst, ok := n.Component(name)
		if !ok {
			continue
		}
		switch s := inst.State(); {
		case s.Terminal():
			continue
		case s == component.SuspendedReceive, s == component.SuspendedSend:
			suspended = append(suspended, name)
		default:
			quiet = false
		}
	}
	return suspended, quiet
}

func (n *Network) resolveDeadlock(suspended []string) {
	n.deadlocked.Store(true)
	set := append([]string(nil), suspended...)
	n.deadlockSet.Store(&set)
	n.emit(Event{Type: EventNetworkDeadlocked, Other: strings.Join(suspended, ",")})

	if n.opts.StrictDeadlock {
		n.recordErr("network", errDeadlocked(suspended))
		n.Terminate()
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	want := make(map[string]bool, len(suspended))
	for _, name := range suspended {
		want[name] = true
	}
	// A component stuck in SuspendedReceive unblocks when its inbound
	// connection is forced; one stuck in SuspendedSend unblocks only when
	// its outbound connection is forced instead, since that is the call
	// it is actually parked in.
	for key, slot := range n.inSlots {
		if want[key.component] && slot.conn != nil {
			slot.conn.ForceEOF()
		}
	}
	for key, slot := range n.outSlots {
		if want[key.component] {
			for _, c := range slot.conns {
				c.ForceEOF()
			}
		}
	}
}
