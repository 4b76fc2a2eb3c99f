// Package qr turns a certificate fingerprint into the scannable verification
// artifact. The payload is a verification URL carrying the fingerprint; the
// image is a QR code with enough error correction to survive minor print or
// scan damage.
package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"net/url"

	"github.com/boombuler/barcode"
	qrenc "github.com/boombuler/barcode/qr"
)

const (
	// modulePixels fixes the printed size of one QR module so artifacts scale
	// consistently across certificates.
	modulePixels = 8
	// quietModules is the quiet-zone border width in modules.
	quietModules = 4
)

// Artifact is the generated QR image plus the payload it encodes. The payload
// is kept alongside the image so callers can reason about the encoded URL
// without decoding pixels.
type Artifact struct {
	Payload string
	PNG     []byte
}

// Generator builds QR artifacts for certificates.
type Generator struct {
	verifyBaseURL string
}

func New(verifyBaseURL string) *Generator {
	return &Generator{verifyBaseURL: verifyBaseURL}
}

// PayloadURL builds the verification URL embedded in the QR code:
// <verify-base>?hash=<fingerprint>.
func (g *Generator) PayloadURL(fp string) string {
	return fmt.Sprintf("%s?hash=%s", g.verifyBaseURL, url.QueryEscape(fp))
}

// Generate encodes the verification URL for the given fingerprint. Level L
// error correction tolerates roughly 7% module loss. Generation is a pure
// function of the fingerprint, so regenerating yields the same payload.
func (g *Generator) Generate(fp string) (Artifact, error) {
	payload := g.PayloadURL(fp)

	code, err := qrenc.Encode(payload, qrenc.L, qrenc.Auto)
	if err != nil {
		return Artifact{}, fmt.Errorf("encode qr payload: %w", err)
	}

	modules := code.Bounds().Dx()
	inner := modules * modulePixels
	scaled, err := barcode.Scale(code, inner, inner)
	if err != nil {
		return Artifact{}, fmt.Errorf("scale qr code: %w", err)
	}

	// Surround the code with the quiet zone scanners expect.
	quiet := quietModules * modulePixels
	total := inner + 2*quiet
	img := image.NewRGBA(image.Rect(0, 0, total, total))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(quiet, quiet, quiet+inner, quiet+inner), scaled, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Artifact{}, fmt.Errorf("encode qr png: %w", err)
	}

	return Artifact{Payload: payload, PNG: buf.Bytes()}, nil
}
