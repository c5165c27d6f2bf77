// Package fallback tags adapter results with where they came from, so callers
// can tell a live answer from a substituted one.
package fallback

// Status classifies an adapter result.
type Status int

const (
	// StatusOK means the value came from the configured path.
	StatusOK Status = iota
	// StatusDegraded means the configured path failed and the value is a
	// substitute (mock data or a default record).
	StatusDegraded
	// StatusFailed means no value could be produced.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Source names the provider of a value.
type Source string

const (
	SourceLive    Source = "live"
	SourceMock    Source = "mock"
	SourceDefault Source = "default"
)

// Result is a value plus its provenance. Reason is set for degraded and failed
// results.
type Result[T any] struct {
	Value  T
	Status Status
	Source Source
	Reason error
}

func OK[T any](v T, src Source) Result[T] {
	return Result[T]{Value: v, Status: StatusOK, Source: src}
}

func Degraded[T any](v T, src Source, reason error) Result[T] {
	return Result[T]{Value: v, Status: StatusDegraded, Source: src, Reason: reason}
}

func Failed[T any](reason error) Result[T] {
	return Result[T]{Status: StatusFailed, Reason: reason}
}
