package client

import (
	"context"
	"fmt"
)

// SaltParams keys the salt search. The mining service derives the
// deterministic deployment address from the creator, token identity and
// metadata URI, so all four fields are required.
type SaltParams struct {
	Creator     string `json:"creator"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	MetadataURI string `json:"metadata_uri"`
}

// SaltResult carries the mined salt and the deployment address it predicts.
// The criterion the address satisfies is the mining service's concern.
type SaltResult struct {
	Salt    string `json:"salt"`
	Address string `json:"address"`
}

// MineSalt asks the mining service for a deployment salt. It must follow
// metadata upload (the params embed the metadata URI) and precede packing
// (the salt and predicted address go into the transaction).
func (c *Client) MineSalt(ctx context.Context, params SaltParams) (SaltResult, error) {
	if params.Creator == "" || params.Name == "" || params.Symbol == "" || params.MetadataURI == "" {
		return SaltResult{}, fmt.Errorf("salt mining requires creator, name, symbol and metadata URI")
	}

	var result SaltResult
	if err := c.postJSON(ctx, saltPath, params, &result); err != nil {
		return SaltResult{}, fmt.Errorf("salt mining failed: %w", err)
	}

	return result, nil
}
