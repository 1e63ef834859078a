package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Dispatch modes.
const (
	ModeAuto    = "auto"
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// ErrNoEngine is returned when no configured engine serves the requested mode.
var ErrNoEngine = errors.New("dispatcher: no engine available for mode")

// Dispatcher coordinates multi-engine racing with staged escalation.
// It starts the fastest engine first and progressively escalates to heavier
// engines if earlier ones fail or are slow.
type Dispatcher struct {
	engines          []Engine
	escalationDelays []time.Duration
	memory           *DomainMemory
}

// NewDispatcher creates a Dispatcher with the given engines and escalation delays.
// engines[i] starts after escalationDelays[i] from the race beginning.
// memory may be nil to disable per-domain engine memory.
func NewDispatcher(engines []Engine, escalationDelays []time.Duration, memory *DomainMemory) *Dispatcher {
	delays := make([]time.Duration, len(engines))
	copy(delays, escalationDelays)
	return &Dispatcher{
		engines:          engines,
		escalationDelays: delays,
		memory:           memory,
	}
}

// Engines returns the names of the configured engines in tier order.
func (d *Dispatcher) Engines() []string {
	names := make([]string, len(d.engines))
	for i, e := range d.engines {
		names[i] = e.Name()
	}
	return names
}

// Dispatch loads req.URL with the engines allowed by mode and returns the
// first successful result. In "auto" mode a previously winning engine for
// the domain is tried alone first.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest, mode string) (*FetchResult, error) {
	engines, delays := d.selectEngines(mode)
	if len(engines) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoEngine, mode)
	}

	domain := extractDomain(req.URL)

	if mode == ModeAuto && d.memory != nil {
		if remembered := d.memory.Get(domain); remembered != "" {
			for _, eng := range engines {
				if eng.Name() != remembered {
					continue
				}
				slog.Debug("domain memory hit", "domain", domain, "engine", remembered)
				result, err := eng.Fetch(ctx, req)
				if err == nil {
					return result, nil
				}
				slog.Info("domain memory miss (engine failed), running full race",
					"domain", domain, "engine", remembered, "error", err)
				d.memory.Delete(domain)
				break
			}
		}
	}

	return d.race(ctx, req, domain, engines, delays)
}

// selectEngines filters the tiers for mode. Delays are rebased so the
// first selected engine starts immediately.
func (d *Dispatcher) selectEngines(mode string) ([]Engine, []time.Duration) {
	var engines []Engine
	var delays []time.Duration
	for i, e := range d.engines {
		isHTTP := e.Name() == ModeHTTP
		switch mode {
		case ModeHTTP:
			if !isHTTP {
				continue
			}
		case ModeBrowser:
			if isHTTP {
				continue
			}
		case ModeAuto:
		default:
			continue
		}
		engines = append(engines, e)
		delays = append(delays, d.escalationDelays[i])
	}
	if len(delays) > 0 {
		base := delays[0]
		for i := range delays {
			delays[i] -= base
		}
	}
	return engines, delays
}

// race runs the engines with staged delays and returns the first success.
func (d *Dispatcher) race(ctx context.Context, req *FetchRequest, domain string, engines []Engine, delays []time.Duration) (*FetchResult, error) {
	type raceResult struct {
		result *FetchResult
		err    error
	}

	raceCtx, raceCancel := context.WithCancel(ctx)
	defer raceCancel()

	results := make(chan raceResult, len(engines))
	var wg sync.WaitGroup

	for i, eng := range engines {
		wg.Add(1)
		go func(e Engine, delay time.Duration) {
			defer wg.Done()

			if delay > 0 {
				select {
				case <-raceCtx.Done():
					return
				case <-time.After(delay):
				}
			}

			// Another engine may already have won.
			select {
			case <-raceCtx.Done():
				return
			default:
			}

			slog.Debug("engine starting", "engine", e.Name(), "url", req.URL)
			result, err := e.Fetch(raceCtx, req)
			if err != nil {
				slog.Debug("engine failed", "engine", e.Name(), "url", req.URL, "error", err)
			}
			results <- raceResult{result: result, err: err}
		}(eng, delays[i])
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for rr := range results {
		if rr.err != nil {
			lastErr = rr.err
			continue
		}
		raceCancel()
		slog.Info("engine won race", "engine", rr.result.EngineName, "url", req.URL)
		if d.memory != nil {
			d.memory.Set(domain, rr.result.EngineName)
		}
		return rr.result, nil
	}

	if lastErr == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lastErr = fmt.Errorf("dispatcher: all engines failed for %s", req.URL)
	}
	return nil, lastErr
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
