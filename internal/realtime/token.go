package realtime

import "github.com/spec-kit/campus-voice/internal/repository"

// ChangeKind names what happened to a concern row. Consumers must not rely
// on it beyond "something in the partition changed": every kind triggers
// the same full refetch.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeUpdate ChangeKind = "update"
)

// ChangeToken is the payload delivered on a change channel.
type ChangeToken struct {
	ConcernID string     `json:"concern_id"`
	OwnerID   string     `json:"owner_id"`
	Kind      ChangeKind `json:"kind"`
}

// Partition identifies the subset of concern rows a subscription covers,
// mirroring the query scopes of the store adapter.
type Partition struct {
	OwnerID *string
}

// PartitionAll covers every concern row.
func PartitionAll() Partition {
	return Partition{}
}

// PartitionOwnedBy covers rows owned by one principal.
func PartitionOwnedBy(ownerID string) Partition {
	return Partition{OwnerID: &ownerID}
}

// Scope converts the partition into the matching list scope.
func (p Partition) Scope() repository.ConcernScope {
	if p.OwnerID != nil {
		return repository.ScopeOwnedBy(*p.OwnerID)
	}
	return repository.ScopeAll()
}

// Channel returns the pub/sub channel carrying the partition's tokens.
func (p Partition) Channel() string {
	if p.OwnerID != nil {
		return "concerns:owner:" + *p.OwnerID
	}
	return "concerns"
}

// String labels the partition for logs and metrics.
func (p Partition) String() string {
	return p.Channel()
}
