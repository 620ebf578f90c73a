// Package shutdown coordinates graceful termination.
//
// Hooks run once, in reverse registration order, under a shared
// deadline, after SIGINT/SIGTERM or cancellation of the parent context.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
