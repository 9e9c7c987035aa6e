// Package admins tracks who may run admin commands: the ids fixed in
// configuration plus the ones promoted from chat, kept in bolt.
package admins

import (
	"sort"
	"strconv"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/storage"
	"training-roster-bot/internal/util"
)

const Bucket = "admins"

type record struct {
	AddedBy int64  `json:"added_by"`
	AddedAt string `json:"added_at"`
}

type Registry struct {
	db    *storage.DB
	fixed map[int64]bool
}

// New builds a registry. fixed are configuration admins; they cannot be
// removed from chat.
func New(db *storage.DB, fixed map[int64]bool) *Registry {
	if fixed == nil {
		fixed = map[int64]bool{}
	}
	return &Registry{db: db, fixed: fixed}
}

func (r *Registry) IsConfigAdmin(id int64) bool { return r.fixed[id] }

// IsAdmin reports whether id has admin rights. Storage errors deny.
func (r *Registry) IsAdmin(id int64) bool {
	if r.fixed[id] {
		return true
	}
	var rec record
	found, err := r.db.Get(Bucket, key(id), &rec)
	if err != nil {
		logger.Error("admins: lookup %d: %v", id, err)
		return false
	}
	return found
}

// Add grants admin rights to target on behalf of actor.
func (r *Registry) Add(actor, target int64) error {
	if !r.IsAdmin(actor) {
		return apperr.Validation("not enough rights")
	}
	if r.IsAdmin(target) {
		if target == actor {
			return apperr.Duplicate("you are already an admin")
		}
		return apperr.Duplicate("this user is already an admin")
	}
	written, err := r.db.Insert(Bucket, key(target), record{AddedBy: actor, AddedAt: util.NowISO()})
	if err != nil {
		return apperr.Persistence("add admin", err)
	}
	if !written {
		return apperr.Duplicate("this user is already an admin")
	}
	logger.Info("admins: %d granted admin rights to %d", actor, target)
	return nil
}

// Remove revokes the rights of target. Configuration admins and the
// actor themself are protected.
func (r *Registry) Remove(actor, target int64) error {
	switch {
	case !r.IsAdmin(actor):
		return apperr.Validation("not enough rights")
	case target == actor:
		return apperr.Validation("you cannot remove your own admin rights")
	case r.fixed[target]:
		return apperr.Validation("this user is a system admin and cannot be removed")
	}
	existed, err := r.db.Delete(Bucket, key(target))
	if err != nil {
		return apperr.Persistence("remove admin", err)
	}
	if !existed {
		return apperr.NotFound("this user is not an admin")
	}
	logger.Info("admins: %d revoked admin rights of %d", actor, target)
	return nil
}

// List returns every admin id, configuration admins included.
func (r *Registry) List() ([]int64, error) {
	keys, err := r.db.Keys(Bucket)
	if err != nil {
		return nil, apperr.Persistence("list admins", err)
	}
	seen := map[int64]bool{}
	for id := range r.fixed {
		seen[id] = true
	}
	for _, k := range keys {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		seen[id] = true
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func key(id int64) string { return strconv.FormatInt(id, 10) }
