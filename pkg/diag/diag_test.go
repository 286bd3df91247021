package diag

import (
	"fmt"
	"sync"
	"testing"
)

func TestAppendAssignsMonotonicSeq(t *testing.T) {
	ch := NewChannel(0)

	var last uint64
	for i := 0; i < 10; i++ {
		ev := ch.Append(LevelInfo, fmt.Sprintf("event %d", i))
		if ev.Seq <= last {
			t.Fatalf("seq %d not greater than previous %d", ev.Seq, last)
		}
		last = ev.Seq
	}
}

func TestDrainReturnsAppendOrder(t *testing.T) {
	ch := NewChannel(0)
	ch.Infof("first")
	ch.Warnf("second %d", 2)
	ch.Errorf("third")

	events := ch.Drain()
	if len(events) != 3 {
		t.Fatalf("Drain returned %d events, want 3", len(events))
	}

	want := []struct {
		level Level
		msg   string
	}{
		{LevelInfo, "first"},
		{LevelWarn, "second 2"},
		{LevelError, "third"},
	}
	for i, w := range want {
		if events[i].Level != w.level || events[i].Message != w.msg {
			t.Errorf("event %d = %s %q, want %s %q", i, events[i].Level, events[i].Message, w.level, w.msg)
		}
	}
}

func TestCapacityTrimsOldest(t *testing.T) {
	ch := NewChannel(3)
	for i := 0; i < 5; i++ {
		ch.Infof("event %d", i)
	}

	events := ch.Drain()
	if len(events) != 3 {
		t.Fatalf("Drain returned %d events, want 3", len(events))
	}
	if events[0].Message != "event 2" {
		t.Errorf("oldest retained = %q, want %q", events[0].Message, "event 2")
	}
	if events[2].Message != "event 4" {
		t.Errorf("newest retained = %q, want %q", events[2].Message, "event 4")
	}
}

func TestClearKeepsSequence(t *testing.T) {
	ch := NewChannel(0)
	ch.Infof("before")
	ch.Clear()

	if got := ch.Drain(); len(got) != 0 {
		t.Fatalf("Drain after Clear returned %d events", len(got))
	}

	ev := ch.Append(LevelInfo, "after")
	if ev.Seq != 2 {
		t.Errorf("seq after Clear = %d, want 2", ev.Seq)
	}
}

func TestSubscribeReceivesLiveEvents(t *testing.T) {
	ch := NewChannel(0)
	ch.Infof("before subscribe")

	feed, cancel := ch.Subscribe()
	defer cancel()

	ch.Warnf("live")
	ev := <-feed
	if ev.Level != LevelWarn || ev.Message != "live" {
		t.Errorf("received %s %q, want warn \"live\"", ev.Level, ev.Message)
	}

	select {
	case extra := <-feed:
		t.Errorf("unexpected extra event %q", extra.Message)
	default:
	}
}

func TestCancelClosesFeed(t *testing.T) {
	ch := NewChannel(0)
	feed, cancel := ch.Subscribe()
	cancel()
	cancel() // idempotent

	if _, ok := <-feed; ok {
		t.Error("feed still open after cancel")
	}

	// Appends after cancel must not panic on the closed channel.
	ch.Infof("after cancel")
}

func TestLaggingSubscriberDoesNotBlock(t *testing.T) {
	ch := NewChannel(0)
	_, cancel := ch.Subscribe()
	defer cancel()

	// Never read from the feed; producers must still make progress past
	// the subscriber buffer.
	for i := 0; i < 300; i++ {
		ch.Infof("event %d", i)
	}
}

func TestConcurrentAppends(t *testing.T) {
	ch := NewChannel(2000)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ch.Infof("goroutine %d event %d", g, i)
			}
		}(g)
	}
	wg.Wait()

	events := ch.Drain()
	if len(events) != 800 {
		t.Fatalf("Drain returned %d events, want 800", len(events))
	}
	seen := make(map[uint64]bool, len(events))
	for _, ev := range events {
		if seen[ev.Seq] {
			t.Fatalf("duplicate seq %d", ev.Seq)
		}
		seen[ev.Seq] = true
	}
}
