// Package keyspace derives Store key names for session indices.
package keyspace

import "strings"

const (
	indexSuffix    = ":idx"
	recordInfix    = ":q:"
	sequenceSuffix = ":seq"
	embCacheInfix  = "emb_cache:"
)

// Keyspace builds keys under a common prefix, e.g. "qdex:".
type Keyspace struct {
	prefix string
}

// New creates a Keyspace for prefix.
func New(prefix string) Keyspace {
	return Keyspace{prefix: prefix}
}

// Prefix returns the common key prefix.
func (k Keyspace) Prefix() string { return k.prefix }

// Index returns the FT index name of a session: {prefix}{name}:idx.
func (k Keyspace) Index(name string) string {
	return k.prefix + name + indexSuffix
}

// RecordPrefix returns the key prefix of every record hash in a session.
func (k Keyspace) RecordPrefix(name string) string {
	return k.prefix + name + recordInfix
}

// Record returns the hash key of a question record.
func (k Keyspace) Record(name, id string) string {
	return k.RecordPrefix(name) + id
}

// Sequence returns the qno counter key of a session.
func (k Keyspace) Sequence(name string) string {
	return k.prefix + name + sequenceSuffix
}

// EmbeddingCache returns the cache key for a text hash.
func (k Keyspace) EmbeddingCache(hash string) string {
	return k.prefix + embCacheInfix + hash
}

// SessionFromIndex reverses Index. ok is false for indices outside this keyspace.
func (k Keyspace) SessionFromIndex(index string) (string, bool) {
	if !strings.HasPrefix(index, k.prefix) || !strings.HasSuffix(index, indexSuffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(index, k.prefix), indexSuffix)
	if name == "" {
		return "", false
	}
	return name, true
}

// IDFromRecord reverses Record for a known session.
func (k Keyspace) IDFromRecord(name, key string) string {
	return strings.TrimPrefix(key, k.RecordPrefix(name))
}
