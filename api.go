// Package callz provides a minimal, primitive call-tracking library.
//
// callz instruments selected operations in a running program to produce.
// timing, success/failure, and call-hierarchy data for diagnostic use. It
// focuses on in-process call tracking with predictable performance and
// bounded memory, without the surface of a full tracing system.
//
// Core Components:.
//   - Tracer: flat recorder with threshold filtering and a bounded ledger.
//   - EnhancedTracer: adds parent/child call-hierarchy tracking.
//   - CallTree: thread-safe call-stack and hierarchy builder.
//   - Call: caller-held token for one in-flight operation.
//
// Basic Usage:.
//
//	tracer, err := callz.NewEnhancedTracer(callz.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer tracer.Close()
//
//	// Wrap an operation.
//	err = tracer.Trace(ctx, "Repo#load", func(ctx context.Context) error {
//		return repo.Load(ctx)
//	})
//
//	// Or drive start/end explicitly.
//	ctx, call := tracer.Start(ctx, "Repo#load")
//	// ... operation body ...
//	call.End(err)
//
//	// Inspect what was recorded.
//	results := tracer.FetchEnhancedResults()
//	fmt.Println(tracer.FormatTree(callz.RenderOptions{}))
//
// Thread Safety:.
//
// Tracer, EnhancedTracer, and CallTree are safe for concurrent use by
// multiple goroutines. Call nesting is tracked per logical execution
// context: the context.Context returned by Start carries the scope that
// keeps one goroutine's call stack out of another's.
//
// Records returned from snapshots are deep copies; mutating them never
// affects internal state.
//
// Memory Management:.
//
// The flat ledger is bounded by Config.MaxCalls with FIFO eviction. The
// call tree's own ledger is logically unbounded and is expected to be
// consumed and cleared by the caller. A call that never ends stays pending
// on its stack; that is caller misuse the library does not paper over.
//
// Resource Cleanup:.
//
// Call Close() on tracers and trees to release the ID pool goroutine.
// Call ClearResults() or Clear() to drop recorded data.
package callz

// Key represents an instrumented operation name.
type Key = string
