package inventory

import (
	"sync"

	"github.com/angelmondragon/bloodbank-backend/pkg/enums"
)

// groupLocks holds one mutex per blood group. The set is fixed at construction,
// so lookups need no locking of their own.
type groupLocks map[enums.BloodGroup]*sync.Mutex

func newGroupLocks() groupLocks {
	locks := make(groupLocks, len(enums.BloodGroups()))
	for _, group := range enums.BloodGroups() {
		locks[group] = &sync.Mutex{}
	}
	return locks
}

func (l groupLocks) get(group enums.BloodGroup) *sync.Mutex {
	return l[group]
}
