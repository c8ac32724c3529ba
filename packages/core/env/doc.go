// Package env handles variables and their resolution inside declaration files.
//
// It provides functionality for:
//   - Loading environment files (.env, .env.<name>, .env.local)
//   - Variable interpolation using {{variable}} syntax
//   - OS environment lookups using {{$NAME}} syntax
//   - Built-in function evaluation ({{uuid()}}, {{basicAuth(u, p)}}, ...)
package env
