package artic

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// ArtworkDetail extends an Artwork with the fields shown on the details screen.
// Description is Markdown; the other text fields are plain text.
type ArtworkDetail struct {
	Artwork
	ArtistDisplay    string
	DateDisplay      string
	MediumDisplay    string
	PlaceOfOrigin    string
	Dimensions       string
	CreditLine       string
	Description      string
	ShortDescription string
	ImageURL         string
}

type rawDetail struct {
	RawRecord
	ArtistDisplay    *string `json:"artist_display"`
	DateDisplay      *string `json:"date_display"`
	MediumDisplay    *string `json:"medium_display"`
	PlaceOfOrigin    *string `json:"place_of_origin"`
	Dimensions       *string `json:"dimensions"`
	CreditLine       *string `json:"credit_line"`
	Description      *string `json:"description"`
	ShortDescription *string `json:"short_description"`
}

type detailEnvelope struct {
	Data *rawDetail `json:"data"`
}

var blankLines = regexp.MustCompile(`\n{3,}`)

type detailFormatter struct {
	markdown *converter.Converter
	strict   *bluemonday.Policy
}

func newDetailFormatter() *detailFormatter {
	return &detailFormatter{
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		strict: bluemonday.StrictPolicy(),
	}
}

// Markdown converts catalog HTML to Markdown, falling back to stripped text.
func (f *detailFormatter) Markdown(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	out, err := f.markdown.ConvertString(source)
	if err != nil || strings.TrimSpace(out) == "" {
		return f.Plain(source)
	}
	return blankLines.ReplaceAllString(strings.TrimSpace(out), "\n\n")
}

// Plain strips all markup and decodes entities left behind by the policy.
func (f *detailFormatter) Plain(source string) string {
	cleaned := f.strict.Sanitize(source)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Artwork fetches one artwork with its descriptive fields.
func (c *Client) Artwork(ctx context.Context, id int) (*ArtworkDetail, error) {
	target := DetailURL(c.baseURL, id)
	resp, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env detailEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &DecodeError{URL: target, Err: err}
	}
	if env.Data == nil {
		return nil, &DecodeError{URL: target, Err: errors.New(`response has no "data" object`)}
	}
	raw := env.Data
	art, _ := Normalize(raw.RawRecord)
	detail := &ArtworkDetail{
		Artwork:          art,
		ArtistDisplay:    strings.TrimSpace(deref(raw.ArtistDisplay)),
		DateDisplay:      c.details.Plain(deref(raw.DateDisplay)),
		MediumDisplay:    c.details.Plain(deref(raw.MediumDisplay)),
		PlaceOfOrigin:    c.details.Plain(deref(raw.PlaceOfOrigin)),
		Dimensions:       c.details.Plain(deref(raw.Dimensions)),
		CreditLine:       c.details.Plain(deref(raw.CreditLine)),
		Description:      c.details.Markdown(deref(raw.Description)),
		ShortDescription: c.details.Plain(deref(raw.ShortDescription)),
		ImageURL:         c.ImageURL(art.ImageID),
	}
	c.logger.Debug("fetched artwork", "id", id, "has_image", art.Renderable())
	return detail, nil
}
