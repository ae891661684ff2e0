// Package integrations provides HTTP clients for the remote services the
// toolkit talks to.
//
// Each service has its own subpackage:
//
//   - [github]: GitHub REST API, used by the API crawler to measure
//     repositories without cloning them
//   - [supabase]: the hosted PostgREST endpoint the language guesses are
//     exported to
//
// The [Client] type provides the shared plumbing: default headers, JSON
// decoding, response caching via [cache.Cache], retry with backoff, and
// rate-limit aware error mapping. Service clients embed it and add their
// endpoint-specific calls.
//
// [github]: github.com/repoharvest/repoharvest/pkg/integrations/github
// [supabase]: github.com/repoharvest/repoharvest/pkg/integrations/supabase
// [cache.Cache]: github.com/repoharvest/repoharvest/pkg/cache.Cache
package integrations
