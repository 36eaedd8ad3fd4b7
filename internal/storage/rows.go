package storage

import (
	"context"
	"strings"

	"github.com/jonathan/npa-sniper/internal/db"
	"github.com/jonathan/npa-sniper/internal/types"
)

// rentYield is the monthly rent estimate as a fraction of the asking price.
const rentYield = 0.004

// buildRow derives the stored columns of a listing.
func buildRow(ctx context.Context, l types.Listing, t Translator, target string) *db.PropertyInput {
	bank := l.Bank
	if bank == "" {
		bank = l.Source
	}

	row := &db.PropertyInput{
		Source:            l.Source,
		Title:             l.Title,
		TitleEN:           translated(ctx, t, l.Title, target),
		Description:       l.Description,
		DescriptionEN:     translated(ctx, t, l.Description, target),
		Price:             l.Price,
		SizeSqm:           l.Size,
		Lat:               l.Lat,
		Lon:               l.Lon,
		CoordsApproximate: l.CoordsApproximate,
		URL:               l.URL,
		Photos:            strings.Join(l.Images, ","),
		PropertyType:      l.PropertyType,
		SaleChannel:       l.SaleChannel,
		Location:          l.Location,
		LocationEN:        translated(ctx, t, l.Location, target),
		Contact:           l.Contact,
		ContactEN:         translated(ctx, t, l.Contact, target),
		Bank:              bank,
		BankEN:            translated(ctx, t, bank, target),
		Strategy:          l.Metrics.Strategy,
		TotalRating:       l.Metrics.Rating,
		TransportScore:    l.Metrics.Transport,
		FoodScore:         l.Metrics.Food,
		SafetyScore:       l.Metrics.Safety,
		LivingRating:      l.Metrics.Rating,
		InvestmentRating:  l.Metrics.Rating,
		Rooms:             l.Rooms,
		Bedrooms:          l.Bedrooms,
		Bathrooms:         l.Bathrooms,
	}
	if l.Price > 0 {
		rent := int(l.Price * rentYield)
		row.RentEstimate = &rent
	}
	return row
}

// translated never fails: a translator error yields the original text.
func translated(ctx context.Context, t Translator, text, target string) string {
	if text == "" || t == nil {
		return text
	}
	out, err := t.Translate(ctx, text, target)
	if err != nil || out == "" {
		return text
	}
	return out
}
