package types

// Snapshot is the complete cache state at a point in time. It is the
// single source of truth for all reads; the store hands out deep copies
// so no consumer can mutate shared state.
//
// The JSON field names match the persisted wire shape and must not
// change without a storage migration.
type Snapshot struct {
	Users         []User         `json:"users"`
	SelectedUser  *User          `json:"selectedUser"`
	PostsByUserID map[int][]Post `json:"postsByUserId"`
}

// NewSnapshot returns the empty initial state.
func NewSnapshot() Snapshot {
	return Snapshot{
		Users:         []User{},
		PostsByUserID: make(map[int][]Post),
	}
}

// IsEmpty reports whether the snapshot is still at its initial state.
func (s Snapshot) IsEmpty() bool {
	return len(s.Users) == 0 && s.SelectedUser == nil && len(s.PostsByUserID) == 0
}

// Clone returns a deep copy. User and Post contain no reference types,
// so copying the slices and the map is sufficient.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Users:         make([]User, len(s.Users)),
		PostsByUserID: make(map[int][]Post, len(s.PostsByUserID)),
	}
	copy(out.Users, s.Users)
	if s.SelectedUser != nil {
		u := *s.SelectedUser
		out.SelectedUser = &u
	}
	for id, posts := range s.PostsByUserID {
		cp := make([]Post, len(posts))
		copy(cp, posts)
		out.PostsByUserID[id] = cp
	}
	return out
}

// UserByID returns the user with the given id from the users slice.
func (s Snapshot) UserByID(id int) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// MaxUserID returns the highest user id in the snapshot, or 0 when the
// users slice is empty.
func (s Snapshot) MaxUserID() int {
	max := 0
	for _, u := range s.Users {
		if u.ID > max {
			max = u.ID
		}
	}
	return max
}
