package client

import (
	"bytes"
	"context"
	"fmt"
)

// ImageUploadResult is the content-addressed URI of an uploaded logo.
type ImageUploadResult struct {
	ImageURI string `json:"image_uri"`
	IsNsfw   bool   `json:"is_nsfw"`
}

// MetadataParams describes the token metadata document. Absent social links
// are serialized as JSON null.
type MetadataParams struct {
	ImageURI    string  `json:"image_uri"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Website     *string `json:"website"`
	Twitter     *string `json:"twitter"`
	Telegram    *string `json:"telegram"`
}

// Metadata echoes the normalized fields the API stored.
type Metadata struct {
	ImageURI    string  `json:"image_uri"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Description string  `json:"description"`
	Website     *string `json:"website"`
	Twitter     *string `json:"twitter"`
	Telegram    *string `json:"telegram"`
	IsNsfw      bool    `json:"is_nsfw"`
}

// MetadataUploadResult is the content-addressed URI of the metadata document.
type MetadataUploadResult struct {
	MetadataURI string   `json:"metadata_uri"`
	Metadata    Metadata `json:"metadata"`
}

// UploadImage posts the raw logo bytes. The content type is echoed to the API
// so it can store the asset correctly.
func (c *Client) UploadImage(ctx context.Context, data []byte, contentType string) (ImageUploadResult, error) {
	if len(data) == 0 {
		return ImageUploadResult{}, fmt.Errorf("image payload is empty")
	}

	var result ImageUploadResult
	if err := c.post(ctx, imagePath, contentType, bytes.NewReader(data), &result); err != nil {
		return ImageUploadResult{}, fmt.Errorf("image upload failed: %w", err)
	}

	return result, nil
}

// UploadMetadata posts the metadata document. It must follow UploadImage
// because the document references the returned image URI.
func (c *Client) UploadMetadata(ctx context.Context, params MetadataParams) (MetadataUploadResult, error) {
	if params.ImageURI == "" {
		return MetadataUploadResult{}, fmt.Errorf("metadata requires an uploaded image URI")
	}

	var result MetadataUploadResult
	if err := c.postJSON(ctx, metadataPath, params, &result); err != nil {
		return MetadataUploadResult{}, fmt.Errorf("metadata upload failed: %w", err)
	}

	return result, nil
}

// OptionalLink converts a possibly-empty form field into the nullable shape
// the metadata API expects.
func OptionalLink(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
