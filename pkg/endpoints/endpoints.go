// Package endpoints provides a typed facade over the Torn API client.
//
// Endpoints are grouped into services mirroring the API's sections:
//
//	api := endpoints.New(c)
//	basic, err := api.User().Basic(ctx)
//	page, err := api.User().Attacks(ctx, nil)
//
// Services hold no state beyond the client, so they are safe for
// concurrent use and cheap to construct on every call.
package endpoints

import (
	"github.com/tornsdk/torn-api-client/pkg/client"
)

// API is the entry point for typed endpoint access.
type API struct {
	c *client.Client
}

// New wraps a client in the typed endpoint facade.
func New(c *client.Client) *API {
	return &API{c: c}
}

// User returns the user endpoints.
func (a *API) User() *UserService {
	return &UserService{c: a.c}
}

// Key returns the key endpoints.
func (a *API) Key() *KeyService {
	return &KeyService{c: a.c}
}

// Market returns the market endpoints.
func (a *API) Market() *MarketService {
	return &MarketService{c: a.c}
}

// Faction returns the faction endpoints.
func (a *API) Faction() *FactionService {
	return &FactionService{c: a.c}
}

// Client returns the underlying client, for raw requests outside the
// typed surface.
func (a *API) Client() *client.Client {
	return a.c
}
