// Package api implements the HTTP REST API of the phonebook record store.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/brianhealey/phonebook/internal/events"
	"github.com/brianhealey/phonebook/internal/identity"
	"github.com/brianhealey/phonebook/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	reg   Registry
	bus   EventBus
	ident identity.Info
}

// Registry is the interface the handlers use to read and mutate contacts.
type Registry interface {
	List() []models.Contact
	Get(id string) (*models.Contact, *models.AppError)
	Create(ctx context.Context, req models.ContactCreate) (models.Contact, *models.AppError)
	Update(ctx context.Context, id string, req models.ContactUpdate) (models.Contact, *models.AppError)
	Delete(ctx context.Context, id string) *models.AppError
	Count() int
	Now() time.Time
}

// EventBus is the interface for subscribing to directory changes.
type EventBus interface {
	Subscribe() *events.Subscription
	Seq() uint64
	SubscriberCount() int
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return models.ErrBadRequest("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON: " + err.Error())
	}
	return nil
}
