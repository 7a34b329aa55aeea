package pricing

import (
	"context"
	"fmt"

	"beatforge/model"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient implements PaymentClient against the Stripe API.
type StripeClient struct {
	api      *client.API
	currency string
}

// NewStripeClient creates a Stripe-backed payment client.
func NewStripeClient(apiKey string) *StripeClient {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeClient{api: api, currency: string(stripe.CurrencyUSD)}
}

// CreateProduct creates one Stripe product for the beat and one price per
// license tier, returning the price ids keyed by tier.
func (c *StripeClient) CreateProduct(ctx context.Context, beat *model.Beat) (*Result, error) {
	productParams := &stripe.ProductParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: map[string]string{"beat_id": beat.ID},
		},
		Name: stripe.String(beat.Title),
	}
	if beat.Description != "" {
		productParams.Description = stripe.String(beat.Description)
	}

	product, err := c.api.Products.New(productParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe product for beat %s: %w", beat.ID, err)
	}

	priceIDs := make(map[model.LicenseTier]string, len(model.Tiers()))
	for _, tier := range model.Tiers() {
		// Shift(2) converts the exact decimal amount to minor units.
		amount := beat.TierPrice(tier).Shift(2).IntPart()
		price, err := c.api.Prices.New(&stripe.PriceParams{
			Params: stripe.Params{
				Context:  ctx,
				Metadata: map[string]string{"beat_id": beat.ID, "tier": string(tier)},
			},
			Product:    stripe.String(product.ID),
			Currency:   stripe.String(c.currency),
			UnitAmount: stripe.Int64(amount),
			Nickname:   stripe.String(string(tier)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stripe price for beat %s tier %s: %w", beat.ID, tier, err)
		}
		priceIDs[tier] = price.ID
	}

	return &Result{ProductID: product.ID, PriceIDs: priceIDs}, nil
}
