package texture

// Kind names the node input slot an image came from.
type Kind string

const (
	Diffuse      Kind = "diffuse"
	Normal       Kind = "normal"
	Height       Kind = "height"
	Thumbnail    Kind = "thumbnail"
	DepthPreview Kind = "depth_preview"
	FrontPreview Kind = "front_preview"
)

// Kinds lists every texture kind in processing order.
var Kinds = []Kind{Diffuse, Normal, Height, Thumbnail, DepthPreview, FrontPreview}

func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }
