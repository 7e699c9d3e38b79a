package endpoints

import (
	"context"
	"fmt"

	"github.com/tornsdk/torn-api-client/pkg/client"
)

// MarketService covers the /market endpoint section.
type MarketService struct {
	c *client.Client
}

// MarketItem identifies the item a market listing refers to.
type MarketItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	AveragePrice int64  `json:"average_price"`
}

// MarketListing is one item market offer.
type MarketListing struct {
	Price  int64 `json:"price"`
	Amount int   `json:"amount"`
}

// ItemMarket holds the listings for a single item.
type ItemMarket struct {
	Item     MarketItem      `json:"item"`
	Listings []MarketListing `json:"listings"`
}

// ItemMarketResponse wraps GET /market/{id}/itemmarket.
type ItemMarketResponse struct {
	ItemMarket ItemMarket `json:"itemmarket"`
}

// ItemMarket returns the current item market listings for an item.
//
// GET /market/{id}/itemmarket
func (s *MarketService) ItemMarket(ctx context.Context, itemID int64) (*ItemMarketResponse, error) {
	var out ItemMarketResponse
	path := fmt.Sprintf("/market/%d/itemmarket", itemID)
	if err := s.c.Get(ctx, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
