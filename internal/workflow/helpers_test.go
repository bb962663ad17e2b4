package workflow

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/kcportal/internal/catalog"
)

// manualTicker fires only when a test calls tick.
type manualTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped.Store(true) }

func (m *manualTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case m.ch <- time.Time{}:
	case <-time.After(2 * time.Second):
		t.Fatal("tick was not consumed")
	}
}

// tickerFactory hands out manual tickers and records each one created.
type tickerFactory struct {
	created chan *manualTicker
}

func newTickerFactory() *tickerFactory {
	return &tickerFactory{created: make(chan *manualTicker, 16)}
}

func (f *tickerFactory) New(time.Duration) Ticker {
	tk := &manualTicker{ch: make(chan time.Time)}
	f.created <- tk
	return tk
}

func (f *tickerFactory) next(t *testing.T) *manualTicker {
	t.Helper()
	select {
	case tk := <-f.created:
		return tk
	case <-time.After(2 * time.Second):
		t.Fatal("no ticker created")
		return nil
	}
}

func fullMetadata() Metadata {
	return Metadata{
		Title:       "Corneal Topography Maps",
		Description: "Pentacam maps from a progression study",
		DataType:    catalog.TypeTopography,
		FileFormat:  catalog.FormatPNG,
		Author:      "Dr. Sarah Chen",
		Institution: "Johns Hopkins University",
		Email:       "s.chen@example.org",
	}
}

func fullCompliance() Compliance {
	return Compliance{Deidentified: true, EthicsApproved: true, DataRights: true, LicenseAgreement: true}
}

func testSession(f *tickerFactory, step int) *Session {
	return NewSession(SessionConfig{
		Limits:     DefaultLimits(),
		Simulation: SimulationConfig{Step: step, Interval: time.Millisecond, NewTicker: f.New},
		Now:        func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}
