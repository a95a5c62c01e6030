// Package sse relays engine activity to browsers as Server-Sent Events.
//
// A Hub owns the connected clients and fans published events out to them;
// slow clients drop events rather than blocking the publisher.
// EngineObserver turns llm engine callbacks into "fragment" and "state"
// events, and PublishError reports an exchange failure as an "error" event.
//
// # Usage
//
//	hub := sse.NewHub()
//	go hub.Run(ctx)
//	engine, _ := llm.NewEngine(cfg, llm.WithObserver(sse.EngineObserver(hub)))
//	router.GET("/v1/events", func(c *gin.Context) {
//	    sse.ServeSSE(hub, c.Writer, c.Request, uuid.NewString())
//	})
package sse
