package endpoints

import (
	"context"

	"github.com/tornsdk/torn-api-client/pkg/client"
	"github.com/tornsdk/torn-api-client/pkg/pagination"
)

// FactionService covers the /faction endpoint section. All calls are
// scoped to the faction of the key's user.
type FactionService struct {
	c *client.Client
}

// FactionBasic is the public summary of a faction.
type FactionBasic struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	LeaderID  int64  `json:"leader_id"`
	Respect   int64  `json:"respect"`
	Members   int    `json:"members"`
	Capacity  int    `json:"capacity"`
	Rank      string `json:"rank"`
	BestChain int    `json:"best_chain"`
}

// FactionBasicResponse wraps GET /faction/basic.
type FactionBasicResponse struct {
	Basic FactionBasic `json:"basic"`
}

// FactionMember is one member of the faction roster.
type FactionMember struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Level         int        `json:"level"`
	Position      string     `json:"position"`
	DaysInFaction int        `json:"days_in_faction"`
	LastActionAt  int64      `json:"last_action"`
	Status        UserStatus `json:"status"`
}

// FactionMembersResponse wraps GET /faction/members.
type FactionMembersResponse struct {
	Members []FactionMember `json:"members"`
}

// Basic returns the faction's public summary.
//
// GET /faction/basic
func (s *FactionService) Basic(ctx context.Context) (*FactionBasicResponse, error) {
	var out FactionBasicResponse
	if err := s.c.Get(ctx, "/faction/basic", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Members returns the faction's member roster.
//
// GET /faction/members
func (s *FactionService) Members(ctx context.Context) (*FactionMembersResponse, error) {
	var out FactionMembersResponse
	if err := s.c.Get(ctx, "/faction/members", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Attacks returns the first page of the faction's detailed attack log.
//
// GET /faction/attacks
func (s *FactionService) Attacks(ctx context.Context, p *AttackParams) (*pagination.Page[AttacksResponse], error) {
	return pagination.Fetch[AttacksResponse](ctx, s.c, "/faction/attacks", p.query())
}
