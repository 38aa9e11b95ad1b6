// Package redis implements session.Store on Redis. Each session is a hash
// keyed by token plus a pointer key from the credential to its token; both
// carry the session's remaining lifetime as a key TTL.
//
// All keys of a store share one hash tag, which keeps the Lua scripts valid
// on Redis Cluster where a script may only touch keys in a single slot.
package redis
