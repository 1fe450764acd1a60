package storage

import (
	"bytes"
	"damoyeo/internal/models"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	DefaultMaxBytes    = 10 << 20
	DefaultMaxDim      = 2048
	DefaultJPEGQuality = 80
)

type ImageOptions struct {
	MaxBytes    int64
	MaxDim      int
	JPEGQuality int
}

func DefaultImageOptions(maxBytes int64) ImageOptions {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return ImageOptions{
		MaxBytes:    maxBytes,
		MaxDim:      DefaultMaxDim,
		JPEGQuality: DefaultJPEGQuality,
	}
}

// ProcessedImage is an upload re-encoded as JPEG.
type ProcessedImage struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// ProcessImage validates an upload by its content, downscales it to fit
// MaxDim (never upscales), flattens transparency onto white and encodes it
// as JPEG.
func ProcessImage(r io.Reader, opts ImageOptions) (*ProcessedImage, error) {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.MaxDim <= 0 {
		opts.MaxDim = DefaultMaxDim
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}

	data, err := io.ReadAll(io.LimitReader(r, opts.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	if int64(len(data)) > opts.MaxBytes {
		return nil, fmt.Errorf("максимум %s: %w", humanize.Bytes(uint64(opts.MaxBytes)), models.ErrImageTooLarge)
	}

	mtype := mimetype.Detect(data)

	var img image.Image
	switch {
	case mtype.Is("image/jpeg"):
		img, err = jpeg.Decode(bytes.NewReader(data))
	case mtype.Is("image/png"):
		img, err = png.Decode(bytes.NewReader(data))
	case mtype.Is("image/webp"):
		img, err = webp.Decode(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%s: %w", mtype.String(), models.ErrUnsupportedImage)
	}
	if err != nil {
		return nil, fmt.Errorf("повреждённое изображение: %w", models.ErrUnsupportedImage)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("пустое изображение: %w", models.ErrUnsupportedImage)
	}

	tw, th := fitWithin(w, h, opts.MaxDim)

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: opts.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("ошибка кодирования JPEG: %w", err)
	}

	return &ProcessedImage{
		Data:        out.Bytes(),
		ContentType: "image/jpeg",
		Width:       tw,
		Height:      th,
	}, nil
}

func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}

	var tw, th int
	if w >= h {
		tw = maxDim
		th = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		th = maxDim
		tw = int(float64(w) * float64(maxDim) / float64(h))
	}

	return max(tw, 1), max(th, 1)
}
