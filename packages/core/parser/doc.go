// Package parser loads API declarations from YAML files.
//
// A declaration file names an API, its base endpoint and defaults, and lists
// its operations:
//
//	name: posts
//	endpoint: https://{{host}}
//	headers:
//	  X-Client: decorest
//	auth:
//	  type: bearer
//	  token: "{{$POSTS_TOKEN}}"
//	on:
//	  "*": {extract: body}
//	operations:
//	  - name: get_post
//	    method: GET
//	    path: /posts/{post_id}
//	    params: [post_id, fields]
//	    query: {fields: ""}
//	    on:
//	      404: {value: null}
//
// {{ }} expressions are resolved through an env.Resolver before the document
// is checked against the embedded JSON schema. Build turns a File into a
// rest.API.
package parser
