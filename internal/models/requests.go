package models

// ContactCreate is the POST body for creating a contact.
type ContactCreate struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

// ContactUpdate is the PUT body for replacing a contact. The ID in the body,
// if any, is ignored in favour of the path parameter.
type ContactUpdate struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Number string `json:"number"`
}
