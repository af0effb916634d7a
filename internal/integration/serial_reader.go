// Package integration handles external service interactions
package integration

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	"go.bug.st/serial"
)

const (
	// DefaultRetryDelay is the pause between reconnection attempts
	DefaultRetryDelay = 5 * time.Second
	// DefaultSettleDelay gives the board time to reset after the port opens
	DefaultSettleDelay = 2 * time.Second
	// DefaultBaudRate of the sensor board
	DefaultBaudRate = 9600
)

var errPortClosed = errors.New("serial port closed")

// SampleSink receives parsed sensor samples
type SampleSink interface {
	ApplySample(sample entities.Sample) error
}

// SampleSinkFunc adapts a function to the SampleSink interface
type SampleSinkFunc func(sample entities.Sample) error

// ApplySample calls f(sample)
func (f SampleSinkFunc) ApplySample(sample entities.Sample) error {
	return f(sample)
}

// Opener opens the line-oriented sensor stream
type Opener func() (io.ReadCloser, error)

// OpenSerialPort returns an Opener for a serial device at the given baud rate
func OpenSerialPort(device string, baud int) Opener {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return func() (io.ReadCloser, error) {
		port, err := serial.Open(device, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
		}
		return port, nil
	}
}

// SerialReader reads "moisture,temperature,humidity" lines from the sensor
// board and hands each valid sample to the sink. It reconnects forever.
type SerialReader struct {
	open Opener
	sink SampleSink

	RetryDelay  time.Duration
	SettleDelay time.Duration

	last    entities.Sample
	hasLast bool
}

// NewSerialReader creates a new serial reader
func NewSerialReader(open Opener, sink SampleSink) *SerialReader {
	return &SerialReader{
		open:        open,
		sink:        sink,
		RetryDelay:  DefaultRetryDelay,
		SettleDelay: DefaultSettleDelay,
	}
}

// Run connects, reads and reconnects until ctx is cancelled
func (r *SerialReader) Run(ctx context.Context) {
	for ctx.Err() == nil {
		port, err := r.open()
		if err != nil {
			log.Printf("Sensor board not connected, retrying in %s: %v", r.RetryDelay, err)
			if !sleepCtx(ctx, r.RetryDelay) {
				break
			}
			continue
		}

		log.Printf("Sensor board connected")
		if !sleepCtx(ctx, r.SettleDelay) {
			port.Close()
			break
		}

		err = r.readLines(ctx, port)
		port.Close()
		if ctx.Err() != nil {
			break
		}
		log.Printf("Sensor board disconnected, retrying in %s: %v", r.RetryDelay, err)
		if !sleepCtx(ctx, r.RetryDelay) {
			break
		}
	}
	log.Printf("Serial reader stopped")
}

// readLines blocks until the stream fails. Cancelling ctx closes the port
// so a blocked read returns.
func (r *SerialReader) readLines(ctx context.Context, port io.ReadCloser) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			port.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		r.HandleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errPortClosed
}

// HandleLine parses one line and forwards it to the sink.
// Blank lines and lines without exactly three fields are ignored.
func (r *SerialReader) HandleLine(line string) {
	sample, ok, err := entities.ParseSampleLine(line)
	if !ok {
		return
	}
	if err != nil {
		log.Printf("Skipping malformed sensor line %q: %v", line, err)
		return
	}

	if !r.hasLast || sample != r.last {
		log.Printf("Sensor sample: moisture=%d temperature=%.1f humidity=%.1f",
			sample.SoilMoisture, sample.Temperature, sample.Humidity)
		r.last = sample
		r.hasLast = true
	}

	if err := r.sink.ApplySample(sample); err != nil {
		log.Printf("Failed to apply sensor sample: %v", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
