// Package logo generates the builder's seed logo set and normalizes logo
// payloads into the fixed-size raster bitmap the upload API expects.
package logo

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

const (
	// RasterSize is the edge length of the uploaded bitmap.
	RasterSize = 256

	// VariantCount is the number of seed logos generated per concept.
	VariantCount = 4
)

var palettes = [][2]string{
	{"#1d4ed8", "#93c5fd"},
	{"#b91c1c", "#fca5a5"},
	{"#047857", "#6ee7b7"},
	{"#7c3aed", "#c4b5fd"},
	{"#b45309", "#fcd34d"},
	{"#0e7490", "#67e8f9"},
	{"#be185d", "#f9a8d4"},
	{"#374151", "#d1d5db"},
}

// Generate produces the seed logo variants for a concept title. The variants
// are a pure function of the title: the same title always yields the same
// SVG documents, so a re-entered builder session sees an identical set.
func Generate(title string) [][]byte {
	h := fnv.New32a()
	h.Write([]byte(title))
	seed := h.Sum32()

	initial := "?"
	for _, r := range strings.TrimSpace(title) {
		initial = strings.ToUpper(string(r))
		break
	}

	variants := make([][]byte, 0, VariantCount)
	for i := 0; i < VariantCount; i++ {
		palette := palettes[(seed+uint32(i)*7)%uint32(len(palettes))]
		rotation := (seed>>4 + uint32(i)*45) % 360
		variants = append(variants, []byte(variantSVG(initial, palette[0], palette[1], int(rotation))))
	}
	return variants
}

func variantSVG(initial, bg, fg string, rotation int) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 256 256">`+
		`<rect width="256" height="256" fill="%s"/>`+
		`<rect x="48" y="48" width="160" height="160" fill="%s" transform="rotate(%d 128 128)"/>`+
		`<text x="128" y="150" font-family="sans-serif" font-size="96" text-anchor="middle" fill="%s">%s</text>`+
		`</svg>`, bg, fg, rotation, bg, initial)
}

// Normalize turns an arbitrary logo payload into a RasterSize PNG. Vector
// input is rasterized; raster input is scaled and re-encoded. Payloads that
// cannot be decoded are rejected.
func Normalize(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("logo payload is empty")
	}

	mtype := mimetype.Detect(data)
	if mtype.Is("image/svg+xml") || mtype.Is("text/xml") {
		out, err := rasterizeSVG(data)
		if err != nil {
			return nil, "", err
		}
		return out, "image/png", nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("logo payload could not be decoded (%s): %w", mtype.String(), err)
	}

	out, err := encodePNG(scale(src))
	if err != nil {
		return nil, "", err
	}
	return out, "image/png", nil
}

func rasterizeSVG(data []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("logo payload could not be decoded as SVG: %w", err)
	}

	icon.SetTarget(0, 0, RasterSize, RasterSize)
	img := image.NewRGBA(image.Rect(0, 0, RasterSize, RasterSize))
	scanner := rasterx.NewScannerGV(RasterSize, RasterSize, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(RasterSize, RasterSize, scanner), 1)

	return encodePNG(img)
}

func scale(src image.Image) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == RasterSize && bounds.Dy() == RasterSize {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, RasterSize, RasterSize))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode logo PNG: %w", err)
	}
	return buf.Bytes(), nil
}
