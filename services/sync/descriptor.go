package sync

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Direction controls which halves of the protocol run for an entity type.
type Direction int

const (
	LocalToRemote Direction = iota
	RemoteToLocal
	Bidirectional
)

func (d Direction) String() string {
	switch d {
	case LocalToRemote:
		return "local_to_remote"
	case RemoteToLocal:
		return "remote_to_local"
	case Bidirectional:
		return "bidirectional"
	default:
		return "unknown"
	}
}

func (d Direction) pushes() bool { return d == LocalToRemote || d == Bidirectional }
func (d Direction) pulls() bool  { return d == RemoteToLocal || d == Bidirectional }

// ConflictStrategy decides whether a pulled non-tombstone document replaces
// the local row it collides with.
type ConflictStrategy int

const (
	LocalWins ConflictStrategy = iota
	RemoteWins
	LatestUpdatedWins
)

func (s ConflictStrategy) String() string {
	switch s {
	case LocalWins:
		return "local_wins"
	case RemoteWins:
		return "remote_wins"
	case LatestUpdatedWins:
		return "latest_updated_wins"
	default:
		return "unknown"
	}
}

// Descriptor is the static sync configuration for one entity type. The
// engine iterates a flat []Descriptor; rows stay boxed as any throughout, and
// the func fields are the only code that knows the concrete type. ToRemote
// may fail; FromRemote must not: on malformed input it logs and returns a
// safe-default record carrying at least the id.
type Descriptor struct {
	Key        string
	Direction  Direction
	Strategy   ConflictStrategy
	Collection string
	Adapter    Adapter

	ToRemote   func(local any, uid string) (bson.M, error)
	FromRemote func(id string, doc bson.M) any

	LocalID   func(local any) string
	UpdatedAt func(local any) int64
	IsDeleted func(local any) bool
	Enabled   func(local any) bool
	Terminal  func(local any) bool

	// OnApplied runs after a pull pass commits, with the rows it upserted
	// and the ids it tombstoned. Lets trigger scheduling track replicated
	// changes. Optional.
	OnApplied func(ctx context.Context, upserted []any, deletedIDs []string)
}

func (d *Descriptor) validate() error {
	if d.Key == "" || d.Collection == "" {
		return fmt.Errorf("descriptor needs a key and a collection")
	}
	if d.Adapter == nil {
		return fmt.Errorf("descriptor %s has no adapter", d.Key)
	}
	if d.ToRemote == nil || d.FromRemote == nil {
		return fmt.Errorf("descriptor %s is missing a mapper", d.Key)
	}
	if d.LocalID == nil || d.UpdatedAt == nil || d.IsDeleted == nil || d.Enabled == nil || d.Terminal == nil {
		return fmt.Errorf("descriptor %s is missing an accessor", d.Key)
	}
	return nil
}

// TombstoneDoc is the minimal document a local deletion uploads: identity,
// the flag, and the deletion timestamp. Full payloads never accompany a
// tombstone.
func TombstoneDoc(uid, id string, updatedAt int64) bson.M {
	return bson.M{
		"uid":       uid,
		"id":        id,
		"isDeleted": true,
		"updatedAt": updatedAt,
	}
}
