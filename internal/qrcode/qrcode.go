package qrcode

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

const DefaultSize = 256

// Renderer turns eSIM activation codes (LPA strings) into PNG QR images.
type Renderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// New returns a Renderer producing size x size images. level is one of
// L, M, Q or H; anything else falls back to M.
func New(size int, level string) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}
	var l qrcode.RecoveryLevel
	switch strings.ToUpper(level) {
	case "L":
		l = qrcode.Low
	case "Q":
		l = qrcode.High
	case "H":
		l = qrcode.Highest
	default:
		l = qrcode.Medium
	}
	return &Renderer{size: size, level: l}
}

func (r *Renderer) PNG(activationCode string) ([]byte, error) {
	activationCode = strings.TrimSpace(activationCode)
	if activationCode == "" {
		return nil, errors.New("activation code required")
	}
	code, err := qrcode.New(activationCode, r.level)
	if err != nil {
		return nil, errors.Wrap(err, "create qr code")
	}
	png, err := code.PNG(r.size)
	if err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return png, nil
}
