// Package http assembles HTTP requests with a fluent, stateful builder and
// decomposes the raw responses into structured, queryable data.
//
// A Builder moves through Empty, MethodSet, Configured and Executed. Each
// method has fixed capabilities: GET, HEAD, CONNECT, OPTIONS and TRACE take
// no request body, and HEAD and TRACE responses carry none.
//
// The network exchange is delegated to a Transport. The transport returns
// the header sections of every hop (one per redirect) followed by the final
// body; the builder splits them, parses one HeaderBlock per hop and exposes
// the result through Response.
//
// Basic Usage:
//
//	b := http.NewBuilder()
//	b.SetTimeout(10 * time.Second).SetFollow(true)
//
//	resp, err := b.Post(ctx, "https://httpbin.org/post",
//	    []string{"Accept: application/json"},
//	    map[string]string{"search": "value"}, http.EncodingQuery)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if terr := resp.TransportError(); terr != nil {
//	    log.Printf("transport: %v", terr)
//	}
//
//	fmt.Println(resp.HTTPCode(), resp.EffectiveURL())
//	ct, _ := resp.Header("Content-Type")        // final hop
//	loc, _ := resp.HeaderAt(0, "Location")      // first redirect
//
// Step by step:
//
//	b := http.NewBuilder()
//	if err := b.SetMethod("PUT"); err != nil { ... }
//	b.SetURL("https://example.com/items/1")
//	b.SetHeaders(map[string]string{"X-Trace": "1"})
//	b.SetBody(item, http.EncodingJSON)
//	resp, err := b.Execute(ctx)
//
// Errors wrap ErrConfiguration, ErrParse or ErrLookup and are checked with
// errors.Is. Transport failures are not returned; they are recorded on the
// Response and retrieved with TransportError.
//
// Thread Safety:
//
// A Builder and its Response belong to one goroutine. Distinct builders
// share no state and can be used concurrently.
package http
