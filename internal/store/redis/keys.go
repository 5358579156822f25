package redis

const (
	// KeyPrefix namespaces every key written by sflens.
	KeyPrefix = "sflens:"
	// KeyOrgsSnapshot holds the persisted aggregate org list.
	KeyOrgsSnapshot = KeyPrefix + "orgs:snapshot"
)

// SnapshotKey returns the key of the org-list snapshot, optionally scoped by
// a namespace (one per machine or user sharing a redis).
func SnapshotKey(namespace string) string {
	if namespace == "" {
		return KeyOrgsSnapshot
	}
	return KeyPrefix + namespace + ":orgs:snapshot"
}
