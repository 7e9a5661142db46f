package redis

// DefaultKeyPrefix namespaces every key this service writes.
const DefaultKeyPrefix = "proctor:"

// Collections and the set that indexes each one for full scans.
const (
	roomsCollection   = "room"
	degreeCollection  = "degree"
	photosCollection  = "photo"
	papersCollection  = "paper"
	indexSuffix       = ":index"
	qpCodeIndexPrefix = "paper:qpcode:"
)

type keyspace struct {
	prefix string
}

func newKeyspace(prefix string) keyspace {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return keyspace{prefix: prefix}
}

func (k keyspace) record(collection, id string) string {
	return k.prefix + collection + ":" + id
}

func (k keyspace) index(collection string) string {
	return k.prefix + collection + indexSuffix
}

func (k keyspace) qpCode(code string) string {
	return k.prefix + qpCodeIndexPrefix + code
}

func (k keyspace) schemaVersion() string {
	return k.prefix + "schema:version"
}

func (k keyspace) migrationLock() string {
	return k.prefix + "schema:lock"
}
