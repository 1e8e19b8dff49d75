package artic

const (
	// wideRatio separates landscape thumbnails from portrait and square ones.
	wideRatio   = 0.7
	wideScale   = 415.0
	narrowScale = 200.0
)

// RawRecord is one entry of the catalog's data array as returned on the wire.
type RawRecord struct {
	ID             int           `json:"id"`
	Title          string        `json:"title"`
	ImageID        *string       `json:"image_id"`
	Thumbnail      *RawThumbnail `json:"thumbnail"`
	ArtistTitle    *string       `json:"artist_title"`
	IsPublicDomain *bool         `json:"is_public_domain"`
	IsOnView       *bool         `json:"is_on_view"`
}

// RawThumbnail carries the aspect hints the catalog attaches to a record.
type RawThumbnail struct {
	Width   *float64 `json:"width"`
	Height  *float64 `json:"height"`
	AltText string   `json:"alt_text"`
	LQIP    string   `json:"lqip"`
}

// Thumbnail holds the optional pixel dimensions of an artwork's preview.
type Thumbnail struct {
	Width   *float64
	Height  *float64
	AltText string
}

// Artwork is the canonical record handed to renderers.
type Artwork struct {
	ID             int
	Title          string
	ImageID        string
	Thumbnail      Thumbnail
	ArtistTitle    string
	IsPublicDomain bool
	IsOnView       bool
}

// LayoutHeight derives the render height from the thumbnail aspect ratio.
// Landscape images (height/width < 0.7) scale by 415, everything else by 200.
// The second result is false when either dimension is missing or not positive.
func (a Artwork) LayoutHeight() (float64, bool) {
	return layoutHeight(a.Thumbnail.Width, a.Thumbnail.Height)
}

// Renderable reports whether the record has an image to show.
func (a Artwork) Renderable() bool {
	return a.ImageID != ""
}

func layoutHeight(width, height *float64) (float64, bool) {
	if width == nil || height == nil || *width <= 0 || *height <= 0 {
		return 0, false
	}
	ratio := *height / *width
	if ratio < wideRatio {
		return wideScale * ratio, true
	}
	return narrowScale * ratio, true
}

// Normalize maps a raw record into an Artwork, copying text fields as
// received. The boolean is false when the record has no image id and must
// not be rendered.
func Normalize(raw RawRecord) (Artwork, bool) {
	art := Artwork{
		ID:          raw.ID,
		Title:       raw.Title,
		ImageID:     deref(raw.ImageID),
		ArtistTitle: deref(raw.ArtistTitle),
	}
	if raw.IsPublicDomain != nil {
		art.IsPublicDomain = *raw.IsPublicDomain
	}
	if raw.IsOnView != nil {
		art.IsOnView = *raw.IsOnView
	}
	if raw.Thumbnail != nil {
		art.Thumbnail = Thumbnail{
			Width:   copyFloat(raw.Thumbnail.Width),
			Height:  copyFloat(raw.Thumbnail.Height),
			AltText: raw.Thumbnail.AltText,
		}
	}
	return art, art.Renderable()
}

// NormalizeBatch normalizes raws in order, dropping records without an image
// and repeated ids.
func NormalizeBatch(raws []RawRecord) []Artwork {
	out := make([]Artwork, 0, len(raws))
	seen := make(map[int]struct{}, len(raws))
	for _, raw := range raws {
		art, ok := Normalize(raw)
		if !ok {
			continue
		}
		if _, dup := seen[art.ID]; dup {
			continue
		}
		seen[art.ID] = struct{}{}
		out = append(out, art)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
