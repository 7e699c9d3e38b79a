package endpoints

import (
	"context"

	"github.com/tornsdk/torn-api-client/pkg/client"
)

// KeyService covers the /key endpoint section, which reports on the
// API key used for the request itself.
type KeyService struct {
	c *client.Client
}

// KeyAccess describes the permission tier of an API key.
type KeyAccess struct {
	Level int    `json:"level"`
	Type  string `json:"type"`
}

// KeyInfo describes the requesting key.
type KeyInfo struct {
	Access     KeyAccess           `json:"access"`
	Selections map[string][]string `json:"selections"`
}

// KeyInfoResponse wraps GET /key/info.
type KeyInfoResponse struct {
	Info KeyInfo `json:"info"`
}

// Info returns access level and available selections for the key that
// performed the request. Under round-robin balancing consecutive calls
// may report on different keys.
//
// GET /key/info
func (s *KeyService) Info(ctx context.Context) (*KeyInfoResponse, error) {
	var out KeyInfoResponse
	if err := s.c.Get(ctx, "/key/info", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
