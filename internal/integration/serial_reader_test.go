package integration

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
)

// collectingSink records samples and cancels once it has seen enough
type collectingSink struct {
	mu      sync.Mutex
	samples []entities.Sample
	want    int
	cancel  context.CancelFunc
}

func (s *collectingSink) ApplySample(sample entities.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	if len(s.samples) == s.want && s.cancel != nil {
		s.cancel()
	}
	return nil
}

// scriptedOpener hands out the given streams in order, then fails
type scriptedOpener struct {
	mu      sync.Mutex
	streams []string
	calls   int
}

func (o *scriptedOpener) open() (io.ReadCloser, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if len(o.streams) == 0 {
		return nil, errors.New("no such device")
	}
	s := o.streams[0]
	o.streams = o.streams[1:]
	return io.NopCloser(strings.NewReader(s)), nil
}

func runWithTimeout(t *testing.T, r *SerialReader, ctx context.Context) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serial reader did not stop")
	}
}

func TestSerialReaderParsesAndReconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opener := &scriptedOpener{streams: []string{
		"12,20.5,50\r\n\nnot,a,number\n1,2\n13,21,51\n",
		"14,22,52\n",
	}}
	sink := &collectingSink{want: 3, cancel: cancel}
	reader := NewSerialReader(opener.open, sink)
	reader.RetryDelay = time.Millisecond
	reader.SettleDelay = time.Millisecond

	runWithTimeout(t, reader, ctx)

	want := []entities.Sample{
		{SoilMoisture: 12, Temperature: 20.5, Humidity: 50},
		{SoilMoisture: 13, Temperature: 21, Humidity: 51},
		{SoilMoisture: 14, Temperature: 22, Humidity: 52},
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.samples) != len(want) {
		t.Fatalf("got %d samples, want %d: %+v", len(sink.samples), len(want), sink.samples)
	}
	for i := range want {
		if sink.samples[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, sink.samples[i], want[i])
		}
	}
	if opener.calls < 2 {
		t.Errorf("expected a reconnect, opener called %d times", opener.calls)
	}
}

func TestSerialReaderRetriesUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	opener := &scriptedOpener{}
	reader := NewSerialReader(opener.open, &collectingSink{})
	reader.RetryDelay = 5 * time.Millisecond

	runWithTimeout(t, reader, ctx)

	if opener.calls < 2 {
		t.Errorf("expected repeated connection attempts, got %d", opener.calls)
	}
}

func TestSerialReaderCancelUnblocksRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	opened := make(chan struct{})
	open := func() (io.ReadCloser, error) {
		close(opened)
		return pr, nil
	}
	reader := NewSerialReader(open, &collectingSink{})
	reader.SettleDelay = 0

	go func() {
		<-opened
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	runWithTimeout(t, reader, ctx)
}

func TestHandleLineSkipsInvalid(t *testing.T) {
	sink := &collectingSink{}
	reader := NewSerialReader(nil, sink)

	for _, line := range []string{"", "   ", "1,2", "1,2,3,4", "x,2,3", "1.5,2,3", " 30 , 19.5 , 40 "} {
		reader.HandleLine(line)
	}

	if len(sink.samples) != 1 {
		t.Fatalf("expected only the valid line to pass, got %+v", sink.samples)
	}
	if got := sink.samples[0]; got != (entities.Sample{SoilMoisture: 30, Temperature: 19.5, Humidity: 40}) {
		t.Errorf("unexpected sample %+v", got)
	}
}
