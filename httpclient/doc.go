// Package httpclient provides the HTTP transport used by the chat engine:
// a client for long-lived streaming responses with typed, classified errors.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{DialTimeout: 10 * time.Second})
//
//	resp, err := client.DoStream(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    URL:    "http://localhost:11434/api/chat",
//	    Body:   body,
//	})
//	if err != nil {
//	    // *httpclient.Error: IsConnection, IsTimeout, IsAuth, IsRateLimit, IsEmptyBody, ...
//	}
//	defer resp.Close()
//
// The body is returned unread. Cancelling ctx aborts the connection and any
// pending read on the body.
package httpclient
