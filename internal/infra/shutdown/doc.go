// Package shutdown coordinates graceful process termination.
//
// Components register hooks as they start. Wait blocks until SIGINT,
// SIGTERM, an explicit Trigger or the end of the parent context, then
// runs the hooks in reverse registration order under a shared deadline:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("mqtt", func(context.Context) error { return client.Close() })
//	err := h.Wait(ctx)
package shutdown
