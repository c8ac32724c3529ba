// Package rest declares REST APIs and calls their operations.
//
// An API carries the defaults every operation inherits (base endpoint,
// headers, accept/content types, timeout, stream flag and status handlers).
// Each operation adds its verb, path template, argument bindings and its own
// metadata:
//
//	api, _ := rest.NewAPI("users",
//		metadata.Endpoint("https://api.example.com"),
//		metadata.Accept("application/json"),
//	)
//	api.MustRegister("get_post", rest.Params("id", "post_id"),
//		metadata.Method(http.GET),
//		metadata.Endpoint("/users/{id}/posts/{post_id}"),
//		metadata.On(404, func(*http.Response) (any, error) { return nil, nil }),
//	)
//
//	client := rest.NewClient(api)
//	post, err := client.Call(ctx, "get_post", 7, 42)
//
// Keyword arguments and call-time overrides are passed as a trailing Kwargs:
//
//	client.Call(ctx, "get_post", 7, rest.Kwargs{"post_id": 42, "timeout": 2.5})
//
// Sessions reuse one transport session across calls; AsyncSession runs calls
// concurrently and waits for them on Exit.
package rest
