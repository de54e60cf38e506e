// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/qvote/event"
)

const testEvtType event.EventType = "test.event"

func TestEventBusSingleSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)
	testEvtData := 999
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, subCh := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, testEvtData))
	select {
	case evt, ok := <-subCh:
		require.True(t, ok, "event channel closed unexpectedly")
		v, ok := evt.Data.(int)
		require.True(t, ok, "event data was not of expected type, got %T", evt.Data)
		assert.Equal(t, testEvtData, v)
		assert.Equal(t, testEvtType, evt.Type)
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, sub1Ch := eb.Subscribe(testEvtType)
	_, sub2Ch := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "hello"))
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		select {
		case evt := <-ch:
			assert.Equal(t, "hello", evt.Data)
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout waiting for event")
		}
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	subId, subCh := eb.Subscribe(testEvtType)
	eb.Unsubscribe(testEvtType, subId)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, 1))
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(1 * time.Second):
		t.Fatalf("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusSubscribeFuncAndClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	doneCh := make(chan any, 2)
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		doneCh <- evt.Data
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "before"))
	select {
	case v := <-doneCh:
		assert.Equal(t, "before", v)
	case <-time.After(1 * time.Second):
		t.Fatal("SubscribeFunc did not receive event before Close")
	}

	eb.Close()
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after"))
	select {
	case <-doneCh:
		t.Fatal("SubscribeFunc should not receive events after Close")
	case <-time.After(50 * time.Millisecond):
	}
	// Closing twice is harmless
	eb.Close()
}

func TestEventBusSubscribeAfterClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	eb.Close()
	subId, subCh := eb.Subscribe(testEvtType)
	assert.Equal(t, event.EventSubscriberId(0), subId)
	_, ok := <-subCh
	assert.False(t, ok, "subscriber channel should be closed")
}

func TestEventBusPublishOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Close()
	_, subCh := eb.Subscribe(testEvtType)
	for i := range 10 {
		eb.Publish(testEvtType, event.NewEvent(testEvtType, i))
	}
	for i := range 10 {
		evt := <-subCh
		assert.Equal(t, i, evt.Data)
	}
}

func TestEventBusMetrics(t *testing.T) {
	defer goleak.VerifyNone(t)
	registry := prometheus.NewRegistry()
	eb := event.NewEventBus(registry, nil)
	defer eb.Close()
	_, subCh := eb.Subscribe(testEvtType)
	// Fill the subscriber buffer and one more, which is dropped
	for i := range event.EventQueueSize + 1 {
		eb.Publish(testEvtType, event.NewEvent(testEvtType, i))
	}
	assert.Len(t, subCh, event.EventQueueSize)
	count, err := testutil.GatherAndCount(
		registry,
		"event_bus_events_total",
		"event_bus_dropped_total",
		"event_bus_subscribers",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
