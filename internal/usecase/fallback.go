package usecase

// serveDecision tags where a symbol's response payload comes from.
type serveDecision int

const (
	// serveFetched: a quote was fetched this request; persist and return it.
	serveFetched serveDecision = iota
	// serveFresh: the cached payload passed the freshness check, or was
	// seeded as a rate-limit fallback.
	serveFresh
	// serveStale: the fetch failed but some cached payload exists; serve it
	// with an annotation.
	serveStale
	// serveNone: nothing to serve; only an error annotation is returned.
	serveNone
)

// decide is the per-symbol fallback chain: fresh fetch, fresh cache, any
// cache, nothing. Kept as a plain function so the precedence is testable
// without any concurrency around it.
func decide(hasFetched, hasFresh, hasStale bool) serveDecision {
	switch {
	case hasFetched:
		return serveFetched
	case hasFresh:
		return serveFresh
	case hasStale:
		return serveStale
	default:
		return serveNone
	}
}
