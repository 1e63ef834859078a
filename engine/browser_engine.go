package engine

import (
	"context"
	"fmt"
)

// BrowserFetchFunc loads a page in a real browser. It is injected from
// main.go so that engine/ never imports browser/.
type BrowserFetchFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// BrowserEngine delegates to a headless browser through a BrowserFetchFunc.
// The forceStealth flag distinguishes "browser" from "browser-stealth".
type BrowserEngine struct {
	fetchFunc    BrowserFetchFunc
	forceStealth bool
	name         string
}

// NewBrowserEngine creates a BrowserEngine.
//   - fetchFunc: callback that drives the browser (injected from main.go).
//   - forceStealth: when true, every request is made with Stealth=true.
func NewBrowserEngine(fetchFunc BrowserFetchFunc, forceStealth bool) *BrowserEngine {
	name := "browser"
	if forceStealth {
		name = "browser-stealth"
	}
	return &BrowserEngine{
		fetchFunc:    fetchFunc,
		forceStealth: forceStealth,
		name:         name,
	}
}

func (e *BrowserEngine) Name() string { return e.name }

func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.name)
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}

	result.EngineName = e.name
	return result, nil
}
