// Package normalize maps raw feed records onto the canonical listing shape.
//
// Normalization is total: missing or malformed fields degrade to zero values
// or fallbacks and never produce an error.
package normalize

import (
	"context"
	"fmt"

	"github.com/jonathan/npa-sniper/internal/feed"
	"github.com/jonathan/npa-sniper/internal/scoring"
	"github.com/jonathan/npa-sniper/internal/types"
)

// Source is the provider name stamped on every listing.
const Source = "BAM"

// AssetURLPrefix is the public detail page of a catalogue asset.
const AssetURLPrefix = "https://www.bam.co.th/asset/"

// Normalizer converts feed records into listings, scoring each one.
type Normalizer struct {
	scorer scoring.AmenityScorer
}

// New creates a Normalizer using scorer for amenity sub-scores.
func New(scorer scoring.AmenityScorer) *Normalizer {
	return &Normalizer{scorer: scorer}
}

// Normalize dispatches on the category's feed.
func (n *Normalizer) Normalize(ctx context.Context, rec feed.Record, category feed.Category) types.Listing {
	if category.IsAuction() {
		return n.Auction(ctx, rec)
	}
	return n.Regular(ctx, rec, category)
}

// Regular normalizes a catalogue feed record.
func (n *Normalizer) Regular(ctx context.Context, rec feed.Record, category feed.Category) types.Listing {
	assetNo := firstText(rec, "assetNo", "id")

	title := firstText(rec, "projectName", "projectTH", "assetType")
	if title == "" {
		title = "NPA Asset"
		if assetNo != "" {
			title = fmt.Sprintf("NPA Asset %s", assetNo)
		}
	}

	price := numberOrZero(first(rec, "sellPrice", "shockPrice", "discountPrice"))
	size := numberOrZero(first(rec, "usableArea", "areaMeter", "areaWa"))

	bedrooms := extractNumber(first(rec, "bedroom", "studio"))
	bathrooms := extractNumber(rec["bathroom"])
	rooms := firstNonZero(extractNumber(rec["rooms"]), bedrooms, extractNumber(rec["studio"]))

	mapInfo := asMap(first(rec, "map", "geoMap"))
	lat, latOK := number(first(mapInfo, "langtitude", "latitude"))
	lon, lonOK := number(first(mapInfo, "longtitude", "longitude"))
	approximate := !latOK || !lonOK
	if approximate {
		lat, lon = syntheticCoords("regular:" + assetNo)
	}

	images := dedupeImages(append(
		gatherImages(rec["albumProperty"], rec["media"], rec["albumPackage1"], rec["albumPackage2"], rec["albumPackage3"]),
		gatherImages(mapInfo["imageUrl"], mapInfo["imageUrl360"], mapInfo["mapImage"])...,
	))

	propertyType := firstText(rec, "assetType")
	if propertyType == "" {
		propertyType = category.PropertyTypeHint
	}
	saleChannel := category.SaleChannel
	if saleChannel == "" {
		saleChannel = types.SaleChannelStandard
	}

	bank := firstText(rec, "departmentName", "groupOfDepartment", "groupProperty")
	if bank == "" {
		bank = "BAM"
	}

	return types.Listing{
		Source:            Source,
		Title:             title,
		Price:             price,
		Size:              size,
		Lat:               lat,
		Lon:               lon,
		URL:               AssetURLPrefix + assetNo,
		Location:          regularLocation(rec),
		Description:       cleanRichText(firstText(rec, "propertyDetail", "summary", "location")),
		Contact:           combineContact(firstText(rec, "adminName", "adminNameConx"), text(rec["telephone"]), text(rec["workPhone"]), text(rec["workPhoneNxt"]), text(rec["workPhoneConx"])),
		Bank:              bank,
		Images:            images,
		Metrics:           scoring.Score(ctx, n.scorer, price, size, lat, lon),
		PropertyType:      propertyType,
		SaleChannel:       saleChannel,
		Bedrooms:          bedrooms,
		Bathrooms:         bathrooms,
		Rooms:             rooms,
		CoordsApproximate: approximate,
	}
}

// Auction normalizes an auction feed record.
func (n *Normalizer) Auction(ctx context.Context, rec feed.Record) types.Listing {
	price := numberOrZero(first(rec, "priceSetByCommittee", "priceEstimateOfLegalOfficer", "priceEstimateOfReciveorship"))
	size := 0.0
	if area := extractNumber(rec["area"]); area != nil {
		size = *area
	}

	caseNo := firstText(rec, "caseno", "caseNo")
	assetURL := text(rec["assetUrl"])
	url := assetURL
	if caseNo != "" {
		url = fmt.Sprintf("%s?case=%s", assetURL, caseNo)
	}

	lat, latOK := number(first(rec, "latitude", "lat"))
	lon, lonOK := number(first(rec, "longitude", "lon"))
	approximate := !latOK || !lonOK
	if approximate {
		lat, lon = syntheticCoords("auction:" + url)
	}

	window := fmt.Sprintf("Auction window %s → %s", text(rec["startDate"]), text(rec["endDate"]))
	description := joinNonEmpty(" | ",
		cleanRichText(text(rec["address"])),
		window,
		cleanRichText(text(rec["placeAuction"])),
		cleanRichText(text(rec["conditionBidder"])),
	)

	images := dedupeImages(append(
		gatherImages(rec["assetImage"], rec["images"]),
		gatherImages(rec["mapImage"])...,
	))

	bedrooms := extractNumber(rec["bedroom"])
	bathrooms := extractNumber(rec["bathroom"])
	rooms := firstNonZero(extractNumber(rec["rooms"]), bedrooms)

	title := firstText(rec, "assetType")
	if title == "" {
		title = "Auction Asset"
	}
	propertyType := firstText(rec, "assetType")
	if propertyType == "" {
		propertyType = "Auction"
	}

	return types.Listing{
		Source:            Source,
		Title:             title,
		Price:             price,
		Size:              size,
		Lat:               lat,
		Lon:               lon,
		URL:               url,
		Location:          auctionLocation(rec),
		Description:       description,
		Contact:           combineContact(text(rec["contact"]), text(rec["claimant"])),
		Bank:              "BAM Auction",
		Images:            images,
		Metrics:           scoring.Score(ctx, n.scorer, price, size, lat, lon),
		PropertyType:      propertyType,
		SaleChannel:       types.SaleChannelAuction,
		Bedrooms:          bedrooms,
		Bathrooms:         bathrooms,
		Rooms:             rooms,
		CoordsApproximate: approximate,
	}
}

// regularLocation renders "province, district, subDistrict | propertyLocation" with fallbacks.
func regularLocation(rec feed.Record) string {
	core := joinNonEmpty(", ", text(rec["province"]), text(rec["district"]), text(rec["subDistrict"]))
	detail := cleanRichText(text(rec["propertyLocation"]))
	switch {
	case core != "" && detail != "":
		return core + " | " + detail
	case detail != "":
		return detail
	case core != "":
		return core
	}
	if loc := cleanRichText(text(rec["location"])); loc != "" {
		return loc
	}
	return "Unknown"
}

// auctionLocation renders "province, district | address" with fallbacks.
func auctionLocation(rec feed.Record) string {
	core := joinNonEmpty(", ", text(rec["province"]), text(rec["district"]))
	loc := joinNonEmpty(" | ", core, cleanRichText(text(rec["address"])))
	if loc == "" {
		return "Unknown"
	}
	return loc
}
