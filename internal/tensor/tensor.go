// Package tensor holds the image tensors handed to nodes by the graph host and
// converts them to 8-bit images.
package tensor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

var (
	ErrShape     = errors.New("tensor shape does not match data length")
	ErrRank      = errors.New("tensor must have shape [H,W,C] or [1,H,W,C]")
	ErrBatchSize = errors.New("tensor batch dimension must be 1")
	ErrChannels  = errors.New("tensor channel count must be 1, 3 or 4")
)

// Image is a dense float tensor describing one image. Values are either
// normalized to [0,1] or already in [0,255].
type Image struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// New validates shape against data and returns the tensor.
func New(shape []int, data []float32) (*Image, error) {
	t := &Image{Shape: append([]int(nil), shape...), Data: data}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Empty reports whether the tensor carries no elements.
func (t *Image) Empty() bool {
	return t == nil || len(t.Data) == 0 || len(t.Shape) == 0 || t.Shape[0] == 0
}

func (t *Image) validate() error {
	n := 1
	for _, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrShape, t.Shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return fmt.Errorf("%w: shape %v overflows", ErrShape, t.Shape)
		}
		n *= d
	}
	if len(t.Shape) == 0 || n != len(t.Data) {
		return fmt.Errorf("%w: shape %v has %d elements, data has %d", ErrShape, t.Shape, n, len(t.Data))
	}
	return nil
}

// layout resolves height, width, channel count and an element accessor after
// removing a unit batch dimension and detecting channel-last data.
func (t *Image) layout() (h, w, c int, at func(y, x, ch int) float32, err error) {
	if err = t.validate(); err != nil {
		return
	}
	shape := t.Shape
	if len(shape) == 4 {
		if shape[0] != 1 {
			err = fmt.Errorf("%w: got %d", ErrBatchSize, shape[0])
			return
		}
		shape = shape[1:]
	}
	if len(shape) != 3 {
		err = fmt.Errorf("%w: got %v", ErrRank, t.Shape)
		return
	}

	data := t.Data
	switch shape[2] {
	case 1, 3, 4:
		h, w, c = shape[0], shape[1], shape[2]
		at = func(y, x, ch int) float32 { return data[(y*w+x)*c+ch] }
	default:
		c, h, w = shape[0], shape[1], shape[2]
		at = func(y, x, ch int) float32 { return data[ch*h*w+y*w+x] }
	}
	if h == 0 || w == 0 {
		err = fmt.Errorf("%w: zero-sized image %v", ErrShape, t.Shape)
	}
	return
}

// Max returns the largest element, ignoring NaN.
func (t *Image) Max() float32 {
	m := float32(math.Inf(-1))
	for _, v := range t.Data {
		if v > m {
			m = v
		}
	}
	return m
}

// ToImage converts the tensor to an 8-bit image. Single-channel tensors become
// *image.Gray; three and four channel tensors become an opaque *image.NRGBA
// with any fourth channel ignored.
func (t *Image) ToImage() (image.Image, error) {
	h, w, c, at, err := t.layout()
	if err != nil {
		return nil, err
	}

	scale := float32(255)
	if t.Max() > 1.0 {
		scale = 1
	}

	rect := image.Rect(0, 0, w, h)
	switch c {
	case 1:
		img := image.NewGray(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetGray(x, y, color.Gray{Y: toByte(at(y, x, 0) * scale)})
			}
		}
		return img, nil
	case 3, 4:
		img := image.NewNRGBA(rect)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.SetNRGBA(x, y, color.NRGBA{
					R: toByte(at(y, x, 0) * scale),
					G: toByte(at(y, x, 1) * scale),
					B: toByte(at(y, x, 2) * scale),
					A: 0xff,
				})
			}
		}
		return img, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrChannels, c)
	}
}

func toByte(v float32) uint8 {
	switch {
	case math.IsNaN(float64(v)), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(float64(v)))
}

// FromImage builds a [1,H,W,3] tensor with values in [0,1].
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	data := make([]float32, 0, h*w*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			data = append(data,
				float32(c.R)/255,
				float32(c.G)/255,
				float32(c.B)/255,
			)
		}
	}
	return &Image{Shape: []int{1, h, w, 3}, Data: data}
}
