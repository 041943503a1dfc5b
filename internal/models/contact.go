// Package models defines the data structures shared by the phonebook server and client.
// JSON field names are the wire format of the record store API.
package models

import (
	"strings"
	"time"
)

// Contact is a single phonebook record. ID is assigned by the record store on
// creation and never changes afterwards.
type Contact struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// SameName reports whether the contact's name matches name, ignoring case.
func (c Contact) SameName(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// Directory is the persisted set of contacts, in insertion order.
type Directory struct {
	Contacts []Contact `json:"persons"`
}

// DeepCopy returns a copy of the directory that shares no memory with d.
func (d Directory) DeepCopy() Directory {
	cp := Directory{Contacts: make([]Contact, len(d.Contacts))}
	copy(cp.Contacts, d.Contacts)
	return cp
}

// EmptyDirectory returns a directory with no contacts and a non-nil slice.
func EmptyDirectory() Directory {
	return Directory{Contacts: []Contact{}}
}

// ChangeKind identifies what happened to a contact.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change describes a single mutation of the directory. It is what the events
// bus carries to SSE subscribers.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Contact Contact    `json:"contact"`
}

// Info is the summary served by GET /info.
type Info struct {
	Count    int       `json:"count"`
	Time     time.Time `json:"time"`
	Hostname string    `json:"hostname"`
	Version  string    `json:"version"`
}
