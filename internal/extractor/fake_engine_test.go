package extractor

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeEngine records calls and returns a canned result
type fakeEngine struct {
	mu        sync.Mutex
	info      *RawInfo
	err       error
	block     chan struct{}
	calls     atomic.Int32
	selectors []string
}

func (f *fakeEngine) Extract(ctx context.Context, url, selector string) (*RawInfo, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.selectors = append(f.selectors, selector)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.info, f.err
}

func strPtr(s string) *string { return &s }

func heightPtr(v int) *Height { return &Height{Value: v} }

func labelPtr(s string) *Height { return &Height{Label: s} }
