package vault

import "strings"

// Record is one stored credential. It has no identity beyond its position in
// the Collection; every field may be empty.
type Record struct {
	Service  string `json:"service"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Note     string `json:"note"`
}

// Masked returns a copy of r with the password replaced by bullets of the
// same length, for list views.
func (r Record) Masked() Record {
	r.Password = strings.Repeat("•", len([]rune(r.Password)))
	return r
}

// Collection is the ordered set of records held by one vault.
type Collection []Record

// Clone returns an independent copy. A nil collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}
