package endpoints

import (
	"context"
	"fmt"

	"github.com/tornsdk/torn-api-client/pkg/client"
	"github.com/tornsdk/torn-api-client/pkg/pagination"
	"github.com/tornsdk/torn-api-client/pkg/params"
)

// UserService covers the /user endpoint section.
type UserService struct {
	c *client.Client
}

// UserStatus is the activity state attached to user records.
type UserStatus struct {
	Description string `json:"description"`
	Details     string `json:"details"`
	State       string `json:"state"`
	Until       int64  `json:"until"`
}

// UserBasic is the minimal public user record.
type UserBasic struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Level  int        `json:"level"`
	Gender string     `json:"gender"`
	Status UserStatus `json:"status"`
}

// UserBasicResponse wraps GET /user/basic.
type UserBasicResponse struct {
	Basic UserBasic `json:"basic"`
}

// Bar is one regenerating resource bar.
type Bar struct {
	Current   int   `json:"current"`
	Maximum   int   `json:"maximum"`
	Increment int   `json:"increment"`
	Interval  int   `json:"interval"`
	TickTime  int64 `json:"ticktime"`
	FullTime  int64 `json:"fulltime"`
}

// UserBars holds the user's resource bars.
type UserBars struct {
	Energy Bar `json:"energy"`
	Nerve  Bar `json:"nerve"`
	Happy  Bar `json:"happy"`
	Life   Bar `json:"life"`
}

// UserBarsResponse wraps GET /user/bars.
type UserBarsResponse struct {
	Bars UserBars `json:"bars"`
}

// UserProfile is the extended public profile of a user.
type UserProfile struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Level        int        `json:"level"`
	Gender       string     `json:"gender"`
	Rank         string     `json:"rank"`
	Age          int        `json:"age"`
	FactionID    int64      `json:"faction_id"`
	LastActionAt int64      `json:"last_action"`
	Status       UserStatus `json:"status"`
}

// UserProfileResponse wraps GET /user/{id}/profile.
type UserProfileResponse struct {
	Profile UserProfile `json:"profile"`
}

// AttackActor identifies one side of an attack. Anonymous attackers
// are reported as a null actor.
type AttackActor struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	FactionID int64  `json:"faction_id"`
}

// Attack is one detailed attack log entry.
type Attack struct {
	ID          int64        `json:"id"`
	Code        string       `json:"code"`
	Started     int64        `json:"started"`
	Ended       int64        `json:"ended"`
	Attacker    *AttackActor `json:"attacker"`
	Defender    *AttackActor `json:"defender"`
	Result      string       `json:"result"`
	RespectGain float64      `json:"respect_gain"`
	RespectLoss float64      `json:"respect_loss"`
	Chain       int          `json:"chain"`
}

// AttacksResponse wraps the detailed attacks listing.
type AttacksResponse struct {
	Attacks []Attack `json:"attacks"`
}

// AttackFull is one simplified attack log entry.
type AttackFull struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	Started     int64   `json:"started"`
	Ended       int64   `json:"ended"`
	AttackerID  int64   `json:"attacker_id"`
	DefenderID  int64   `json:"defender_id"`
	Result      string  `json:"result"`
	RespectGain float64 `json:"respect_gain"`
}

// AttacksFullResponse wraps the simplified attacks listing.
type AttacksFullResponse struct {
	Attacks []AttackFull `json:"attacks"`
}

// AttackParams filters attack listings. The zero value (or nil) applies
// no filters.
type AttackParams struct {
	// Limit caps the number of entries per page (max 1000).
	Limit int
	// Sort orders by started timestamp, "ASC" or "DESC".
	Sort string
	// From and To bound the started timestamp, inclusive.
	From int64
	To   int64
}

func (p *AttackParams) query() params.Params {
	if p == nil {
		return nil
	}
	var q params.Params
	if p.Limit > 0 {
		q = q.AddInt("limit", int64(p.Limit))
	}
	if p.Sort != "" {
		q = q.Add("sort", p.Sort)
	}
	if p.From > 0 {
		q = q.AddInt("from", p.From)
	}
	if p.To > 0 {
		q = q.AddInt("to", p.To)
	}
	return q
}

// Basic returns basic information about the key's user.
//
// GET /user/basic
func (s *UserService) Basic(ctx context.Context) (*UserBasicResponse, error) {
	var out UserBasicResponse
	if err := s.c.Get(ctx, "/user/basic", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bars returns the user's energy, nerve, happy and life bars.
//
// GET /user/bars
func (s *UserService) Bars(ctx context.Context) (*UserBarsResponse, error) {
	var out UserBarsResponse
	if err := s.c.Get(ctx, "/user/bars", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the public profile of the given user.
//
// GET /user/{id}/profile
func (s *UserService) Profile(ctx context.Context, id int64) (*UserProfileResponse, error) {
	var out UserProfileResponse
	path := fmt.Sprintf("/user/%d/profile", id)
	if err := s.c.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Attacks returns the first page of the user's detailed attack log.
//
// GET /user/attacks
func (s *UserService) Attacks(ctx context.Context, p *AttackParams) (*pagination.Page[AttacksResponse], error) {
	return pagination.Fetch[AttacksResponse](ctx, s.c, "/user/attacks", p.query())
}

// AttacksFull returns the first page of the user's simplified attack
// log, which reaches further back than the detailed one.
//
// GET /user/attacksfull
func (s *UserService) AttacksFull(ctx context.Context, p *AttackParams) (*pagination.Page[AttacksFullResponse], error) {
	return pagination.Fetch[AttacksFullResponse](ctx, s.c, "/user/attacksfull", p.query())
}
