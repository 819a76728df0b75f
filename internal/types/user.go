// Package types provides the data structures shared across the userdeck
// cache: users, posts, and the state snapshot that is persisted between
// sessions.
package types

// Geo holds decimal-string coordinates as delivered by the remote API.
type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

// Address is the nested postal address of a User.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

// Company is the nested employer record of a User.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// User is a single directory entry.
//
// Identity is immutable: ids 1..N are assigned by the remote seed data,
// ids beyond that are allocated locally (see the sync package). All
// other fields are replaced wholesale on update.
type User struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`
}

// Post is a single post, always accessed scoped to its owning user.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}
