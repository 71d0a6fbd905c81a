package rpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Mohsinsiddi/gacharoom/internal/chain"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest    Algorithm = "fastest"
	AlgorithmRoundRobin Algorithm = "round-robin"
	AlgorithmFailover   Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
)

// Endpoint is one probed RPC endpoint.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error // probe failure, nil when healthy
}

// Healthy reports whether the probe succeeded.
func (e Endpoint) Healthy() bool { return e.Err == nil }

// Probe pings every url in parallel and returns one Endpoint per url, in
// input order.
func Probe(ctx context.Context, urls []string) []Endpoint {
	out := make([]Endpoint, len(urls))
	var wg sync.WaitGroup

	for i, url := range urls {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()
			out[idx] = probeOne(ctx, u)
		}(i, url)
	}

	wg.Wait()
	return out
}

func probeOne(ctx context.Context, url string) Endpoint {
	c, err := chain.Dial(ctx, url)
	if err != nil {
		return Endpoint{URL: url, Err: err}
	}
	defer c.Close()

	latency, block, err := c.Ping(ctx)
	return Endpoint{URL: url, Latency: latency, BlockNumber: block, Err: err}
}

// Picker selects an endpoint according to its algorithm.
type Picker struct {
	algo Algorithm
	mu   sync.Mutex
	next int
}

// NewPicker creates a Picker. Unknown algorithms behave as AlgorithmFastest.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// Pick chooses among healthy endpoints that are within staleBlockThreshold of
// the highest block seen.
func (p *Picker) Pick(endpoints []Endpoint) (Endpoint, error) {
	fresh := freshEndpoints(endpoints)
	if len(fresh) == 0 {
		return Endpoint{}, ErrNoHealthyRPC
	}

	switch p.algo {
	case AlgorithmFailover:
		return fresh[0], nil
	case AlgorithmRoundRobin:
		p.mu.Lock()
		defer p.mu.Unlock()
		e := fresh[p.next%len(fresh)]
		p.next = (p.next + 1) % len(fresh)
		return e, nil
	default:
		best := fresh[0]
		for _, e := range fresh[1:] {
			if e.Latency < best.Latency {
				best = e
			}
		}
		return best, nil
	}
}

// freshEndpoints keeps healthy, non-stale endpoints in input order.
func freshEndpoints(endpoints []Endpoint) []Endpoint {
	var bestBlock uint64
	for _, e := range endpoints {
		if e.Healthy() && e.BlockNumber > bestBlock {
			bestBlock = e.BlockNumber
		}
	}

	var out []Endpoint
	for _, e := range endpoints {
		if !e.Healthy() {
			continue
		}
		if bestBlock-e.BlockNumber > staleBlockThreshold {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Select picks the best RPC URL from urls using the named algorithm. A single
// URL is returned without probing.
func Select(ctx context.Context, urls []string, algorithm string) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}

	algo := Algorithm(algorithm)
	if algo == "" {
		algo = AlgorithmFastest
	}
	winner, err := NewPicker(algo).Pick(Probe(ctx, urls))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
