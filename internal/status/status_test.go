package status

import (
	"sync"
	"testing"
	"time"
)

func TestSnapshotSortedByChannel(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{MaxPosition: 100})

	tr.SeedChannels(map[int]int{7: 30, 1: 0, 3: 100})

	snap := tr.Snapshot()
	if len(snap.Channels) != 3 {
		t.Fatalf("channels: got %d, want 3", len(snap.Channels))
	}
	for i, want := range []int{1, 3, 7} {
		if snap.Channels[i].Nr != want {
			t.Errorf("channel order [%d]: got %d, want %d", i, snap.Channels[i].Nr, want)
		}
	}
	if snap.Channels[2].Position != 30 {
		t.Errorf("channel 7 position: got %d, want 30", snap.Channels[2].Position)
	}
}

func TestRecordCommand(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})
	at := start.Add(time.Minute)

	tr.RecordCommand(2, "UP", 100, at)
	tr.RecordCommand(2, "STOP", 40, at.Add(time.Second))
	tr.RecordRejected()

	snap := tr.Snapshot()
	if snap.Counts.Commands != 2 {
		t.Errorf("commands: got %d, want 2", snap.Counts.Commands)
	}
	if snap.Counts.Rejected != 1 {
		t.Errorf("rejected: got %d, want 1", snap.Counts.Rejected)
	}

	ch := snap.Channels[0]
	if ch.Nr != 2 || ch.Position != 40 || ch.LastAction != "STOP" {
		t.Errorf("channel: got %+v", ch)
	}
	if !ch.LastActionAt.Equal(at.Add(time.Second)) {
		t.Errorf("last action at: got %v", ch.LastActionAt)
	}
}

func TestUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, Config{})

	snap := tr.Snapshot()
	if up := snap.Uptime(); up < 90*time.Second || up > 91*time.Second {
		t.Errorf("uptime: got %v, want ~90s", up)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.RecordCommand(i%3+1, "UP", i*10%101, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			tr.Snapshot()
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().Counts.Commands; got != 10 {
		t.Errorf("commands: got %d, want 10", got)
	}
}
