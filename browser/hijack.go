package browser

import (
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/scrapecheck/engine"
)

// configToProto maps config resource type names to Rod protocol types.
var configToProto = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// maxRecorded bounds the per-visit request log.
const maxRecorded = 2000

// requestRecorder collects every request a page issues. Hijack handlers run
// on their own goroutines, so access is serialised.
type requestRecorder struct {
	mu       sync.Mutex
	requests []engine.CapturedRequest
}

func (r *requestRecorder) add(req engine.CapturedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) < maxRecorded {
		r.requests = append(r.requests, req)
	}
}

func (r *requestRecorder) snapshot() []engine.CapturedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.CapturedRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

// setupHijack installs a request interceptor that records every request and
// fails those whose resource type is in blockedTypes. Blocked requests are
// still recorded: the page did ask for them.
//
// The returned router must be stopped by the caller.
func setupHijack(page *rod.Page, blockedTypes []string, rec *requestRecorder) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]struct{}, len(blockedTypes))
	for _, name := range blockedTypes {
		if rt, ok := configToProto[name]; ok {
			blocked[rt] = struct{}{}
		}
	}

	router := page.HijackRequests()

	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		rt := ctx.Request.Type()
		rec.add(engine.CapturedRequest{
			URL:          ctx.Request.URL().String(),
			Method:       ctx.Request.Method(),
			ResourceType: string(rt),
		})

		if _, shouldBlock := blocked[rt]; shouldBlock {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// router.Run() blocks until router.Stop().
	go router.Run()

	return router
}
