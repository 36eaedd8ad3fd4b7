// Package feed describes the BAM catalogue and auction feeds: their categories,
// request payloads and page decoding.
package feed

import "github.com/jonathan/npa-sniper/internal/types"

// AuctionLabel is the category label of the auction feed.
const AuctionLabel = "Auction"

// Category is the static descriptor of one feed partition.
type Category struct {
	Label            string
	FeedType         string
	AssetTypes       []string
	PropertyTypeHint string
	SaleChannel      string
}

// IsAuction reports whether the category belongs to the auction feed.
func (c Category) IsAuction() bool {
	return c.FeedType == types.FeedAuction
}

// RegularCategories are the asset-type partitions of the catalogue feed, in scan order.
var RegularCategories = []Category{
	{Label: "General Feed", FeedType: types.FeedRegular, AssetTypes: []string{}, PropertyTypeHint: "Mixed", SaleChannel: types.SaleChannelStandard},
	{Label: "Single Houses", FeedType: types.FeedRegular, AssetTypes: []string{"บ้านเดี่ยว"}, PropertyTypeHint: "บ้านเดี่ยว", SaleChannel: types.SaleChannelStandard},
	{Label: "Townhouses", FeedType: types.FeedRegular, AssetTypes: []string{"ทาวน์เฮ้าส์"}, PropertyTypeHint: "ทาวน์เฮ้าส์", SaleChannel: types.SaleChannelStandard},
	{Label: "Condos", FeedType: types.FeedRegular, AssetTypes: []string{"ห้องชุดพักอาศัย"}, PropertyTypeHint: "ห้องชุดพักอาศัย", SaleChannel: types.SaleChannelStandard},
	{Label: "Vacant Land", FeedType: types.FeedRegular, AssetTypes: []string{"ที่ดินเปล่า"}, PropertyTypeHint: "ที่ดินเปล่า", SaleChannel: types.SaleChannelStandard},
	{Label: "Commercial Buildings", FeedType: types.FeedRegular, AssetTypes: []string{"อาคารพาณิชย์"}, PropertyTypeHint: "อาคารพาณิชย์", SaleChannel: types.SaleChannelStandard},
}

// AuctionCategory is the single partition of the auction feed.
var AuctionCategory = Category{
	Label:            AuctionLabel,
	FeedType:         types.FeedAuction,
	PropertyTypeHint: "Auction",
	SaleChannel:      types.SaleChannelAuction,
}

// AllCategories returns the regular categories followed by the auction category.
func AllCategories() []Category {
	all := make([]Category, 0, len(RegularCategories)+1)
	all = append(all, RegularCategories...)
	return append(all, AuctionCategory)
}

// RegularPayload is the search body accepted by the catalogue endpoint.
type RegularPayload struct {
	AssetTypes []string `json:"assetTypes"`
	Keyword    *string  `json:"keyword"`
	Provinces  []string `json:"provinces"`
	Districts  []string `json:"districts"`
	PageNumber int      `json:"pageNumber"`
	PageSize   int      `json:"pageSize"`
	OrderBy    string   `json:"orderBy"`
}

// AuctionPayload is the search body accepted by the auction endpoint.
type AuctionPayload struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// Payload builds the request body for page of the category.
func (c Category) Payload(page, pageSize int) any {
	if c.IsAuction() {
		return AuctionPayload{PageNumber: page, PageSize: pageSize}
	}
	assetTypes := c.AssetTypes
	if assetTypes == nil {
		assetTypes = []string{}
	}
	return RegularPayload{
		AssetTypes: assetTypes,
		Provinces:  []string{},
		Districts:  []string{},
		PageNumber: page,
		PageSize:   pageSize,
		OrderBy:    "DEFAULT",
	}
}
