// Package articfake serves a deterministic in-memory catalog over HTTP with
// the same routes and payload shapes as the Art Institute of Chicago API.
// Tests point artic.Client at it instead of the public service.
package articfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var titleStems = []string{
	"Water Lilies",
	"Nighthawks",
	"The Bedroom",
	"American Gothic",
	"Sky above Clouds",
	"Paris Street; Rainy Day",
	"The Old Guitarist",
}

// Artwork is one catalog entry held by the fake.
type Artwork struct {
	ID             int
	Title          string
	ImageID        string
	Width          float64
	Height         float64
	ArtistTitle    string
	IsPublicDomain bool
	IsOnView       bool
	Description    string
}

// Option customises the generated catalog.
type Option func(*Server)

// WithSize sets how many artworks the catalog holds. Default: 60.
func WithSize(n int) Option { return func(s *Server) { s.size = n } }

// WithMissingImages drops the image id of every nth artwork.
func WithMissingImages(every int) Option { return func(s *Server) { s.missingEvery = every } }

// Server is a running fake catalog.
type Server struct {
	*httptest.Server

	size         int
	missingEvery int

	mu       sync.Mutex
	artworks []Artwork
	byID     map[int]Artwork
	hits     map[int]int
	failures map[int]int
	requests []string
}

// New starts a fake catalog and stops it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := Start(opts...)
	t.Cleanup(s.Close)
	return s
}

// Start launches a fake catalog without tying it to a test.
func Start(opts ...Option) *Server {
	s := &Server{size: 60, hits: map[int]int{}, failures: map[int]int{}}
	for _, opt := range opts {
		opt(s)
	}
	s.generate()
	s.Server = httptest.NewServer(s.routes())
	return s
}

// APIBase is the API root to hand to artic.Client.
func (s *Server) APIBase() string { return s.URL + "/api/v1" }

// IIIFBase is the image server root to hand to artic.Client.
func (s *Server) IIIFBase() string { return s.URL + "/iiif/2" }

// Artworks returns a copy of the catalog in id order.
func (s *Server) Artworks() []Artwork {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Artwork(nil), s.artworks...)
}

// FailPage makes the next n search requests for page answer with a 500.
func (s *Server) FailPage(page, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[page] += n
}

// SearchHits reports how many search requests asked for page.
func (s *Server) SearchHits(page int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[page]
}

// Requests returns the request URIs received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) generate() {
	s.artworks = make([]Artwork, 0, s.size)
	s.byID = make(map[int]Artwork, s.size)
	for i := 1; i <= s.size; i++ {
		art := Artwork{
			ID:             1000 + i,
			Title:          fmt.Sprintf("%s %d", titleStems[(i-1)%len(titleStems)], i),
			ImageID:        fmt.Sprintf("img-%04d", i),
			ArtistTitle:    fmt.Sprintf("Artist %d", (i-1)%5+1),
			IsPublicDomain: i%2 == 0,
			IsOnView:       i%3 == 0,
			Description:    fmt.Sprintf("<p>Entry <em>%d</em> of the fixture catalog.</p>", i),
		}
		if i%2 == 0 {
			art.Width, art.Height = 200, 100
		} else {
			art.Width, art.Height = 100, 150
		}
		if s.missingEvery > 0 && i%s.missingEvery == 0 {
			art.ImageID = ""
		}
		s.artworks = append(s.artworks, art)
		s.byID[art.ID] = art
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/artworks/search", s.handleSearch)
		r.Get("/artworks", s.handleIDs)
		r.Get("/artworks/{id}", s.handleDetail)
	})
	r.Get("/iiif/2/{imageID}/full/{size}/0/default.jpg", s.handleImage)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.URL.RequestURI())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	s.hits[page]++
	failing := s.failures[page] > 0
	if failing {
		s.failures[page]--
	}
	s.mu.Unlock()
	if failing {
		http.Error(w, `{"status":500,"error":"Internal error"}`, http.StatusInternalServerError)
		return
	}

	term := strings.ToLower(strings.TrimSpace(query.Get("q")))
	publicDomain := query.Get("query[term][is_public_domain]") == "true"
	onView := query.Get("query[term][is_on_view]") == "true"

	matches := make([]Artwork, 0, len(s.artworks))
	for _, art := range s.artworks {
		if term != "" && !strings.Contains(strings.ToLower(art.Title), term) {
			continue
		}
		if publicDomain && !art.IsPublicDomain {
			continue
		}
		if onView && !art.IsOnView {
			continue
		}
		matches = append(matches, art)
	}

	total := len(matches)
	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	data := make([]map[string]any, 0, end-start)
	for _, art := range matches[start:end] {
		data = append(data, listRecord(art, true))
	}
	writeJSON(w, map[string]any{
		"pagination": map[string]any{
			"total":        total,
			"limit":        limit,
			"offset":       start,
			"total_pages":  (total + limit - 1) / limit,
			"current_page": page,
		},
		"data":   data,
		"config": map[string]any{"iiif_url": s.IIIFBase()},
	})
}

func (s *Server) handleIDs(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	data := []map[string]any{}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if art, ok := s.byID[id]; ok {
			data = append(data, listRecord(art, false))
		}
	}
	writeJSON(w, map[string]any{
		"pagination": map[string]any{"total": len(data)},
		"data":       data,
	})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"status":400,"error":"Invalid id"}`, http.StatusBadRequest)
		return
	}
	art, ok := s.byID[id]
	if !ok {
		http.Error(w, `{"status":404,"error":"Not found"}`, http.StatusNotFound)
		return
	}
	record := listRecord(art, true)
	record["artist_display"] = art.ArtistTitle + "\nAmerican, 1900-1980"
	record["date_display"] = "c. 1930"
	record["medium_display"] = "Oil on canvas"
	record["place_of_origin"] = "United States"
	record["dimensions"] = "78 &times; 65.3 cm"
	record["credit_line"] = "Friends of American Art Collection"
	record["description"] = art.Description
	record["short_description"] = "<p>A fixture artwork.</p>"
	writeJSON(w, map[string]any{"data": record})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "imageID")
	etag := `"` + imageID + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Etag", etag)
	_, _ = w.Write([]byte("\xff\xd8\xff" + imageID))
}

func listRecord(art Artwork, withFlags bool) map[string]any {
	record := map[string]any{
		"id":           art.ID,
		"title":        art.Title,
		"artist_title": art.ArtistTitle,
		"thumbnail": map[string]any{
			"width":    art.Width,
			"height":   art.Height,
			"alt_text": "Fixture image for " + art.Title,
		},
	}
	if art.ImageID != "" {
		record["image_id"] = art.ImageID
	} else {
		record["image_id"] = nil
	}
	if withFlags {
		record["is_public_domain"] = art.IsPublicDomain
		record["is_on_view"] = art.IsOnView
	}
	return record
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
