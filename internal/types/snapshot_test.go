package types

import (
	"encoding/json"
	"reflect"
	"testing"
)

func sample() Snapshot {
	snap := NewSnapshot()
	snap.Users = []User{
		{ID: 1, Name: "a", Address: Address{City: "X", Geo: Geo{Lat: "1.0", Lng: "2.0"}}},
		{ID: 9, Name: "b", Company: Company{Name: "Acme", CatchPhrase: "boom"}},
	}
	u := snap.Users[0]
	snap.SelectedUser = &u
	snap.PostsByUserID[1] = []Post{{ID: 1, UserID: 1, Title: "t", Body: "b"}}
	return snap
}

// TestClone_Independent verifies mutations of a clone never leak back
func TestClone_Independent(t *testing.T) {
	orig := sample()
	clone := orig.Clone()

	clone.Users[0].Name = "mutated"
	clone.SelectedUser.Name = "mutated"
	clone.PostsByUserID[1][0].Title = "mutated"
	clone.PostsByUserID[2] = []Post{{ID: 2}}

	if orig.Users[0].Name != "a" {
		t.Error("clone shares users slice with original")
	}
	if orig.SelectedUser.Name != "a" {
		t.Error("clone shares selected user with original")
	}
	if orig.PostsByUserID[1][0].Title != "t" {
		t.Error("clone shares post slices with original")
	}
	if _, ok := orig.PostsByUserID[2]; ok {
		t.Error("clone shares posts map with original")
	}
}

// TestSnapshot_JSONRoundTrip verifies the persisted wire shape decodes
// back to an equal snapshot, including the integer-keyed posts map
func TestSnapshot_JSONRoundTrip(t *testing.T) {
	want := sample()

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}

	var got Snapshot
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot=%+v\nwant=%+v", got, want)
	}
}

// TestMaxUserID covers the allocation helper
func TestMaxUserID(t *testing.T) {
	if got := NewSnapshot().MaxUserID(); got != 0 {
		t.Errorf("MaxUserID() on empty = %d, want 0", got)
	}
	if got := sample().MaxUserID(); got != 9 {
		t.Errorf("MaxUserID() = %d, want 9", got)
	}
}

// TestIsEmpty covers the hydration predicate
func TestIsEmpty(t *testing.T) {
	if !NewSnapshot().IsEmpty() {
		t.Error("NewSnapshot().IsEmpty() = false")
	}
	if sample().IsEmpty() {
		t.Error("sample().IsEmpty() = true")
	}
}
