package price

import "context"

//go:generate mockgen -source=interface.go -destination=mock/store_mock.go -package=mock

// PriceStore is the shared hash of last prices, one field per lowercased asset.
type PriceStore interface {
	// Get returns the stored value of asset and whether the field exists.
	Get(ctx context.Context, asset string) (string, bool, error)
	// SetMany writes every entry with a single multi-field HSET.
	SetMany(ctx context.Context, prices map[string]string) error
	// All returns the whole hash.
	All(ctx context.Context) (map[string]string, error)
}
