package artic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	partialSuffix = ".part"
	metaSuffix    = ".meta"
	imageSuffix   = ".jpg"
)

type imageMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	SavedAt      time.Time `json:"savedAt"`
	Size         int64     `json:"size"`
}

// DownloadImage saves the IIIF JPEG for imageID into dir and returns the file
// path. An interrupted transfer resumes from its .part file; an existing file
// is revalidated with its ETag and kept when the server answers 304.
func (c *Client) DownloadImage(ctx context.Context, imageID, dir string) (string, error) {
	imageURL := c.ImageURL(imageID)
	if imageURL == "" {
		return "", errors.New("artwork has no image")
	}
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("download directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	d := imageDownload{
		client:      c.http,
		userAgent:   c.userAgent,
		url:         imageURL,
		path:        filepath.Join(dir, sanitizeKey(imageID)+imageSuffix),
		metaPath:    filepath.Join(dir, sanitizeKey(imageID)+metaSuffix),
		partialPath: filepath.Join(dir, sanitizeKey(imageID)+partialSuffix),
	}
	meta, _ := readMeta(d.metaPath)
	current, _ := os.Stat(d.path)
	path, err := d.run(ctx, meta, current)
	if err == nil {
		c.logger.Info("image saved", "image_id", imageID, "path", path)
		return path, nil
	}
	if current != nil && current.Size() > 0 {
		c.logger.Warn("image refresh failed, keeping existing file", "image_id", imageID, "err", err)
		return d.path, nil
	}
	return "", err
}

type imageDownload struct {
	client      *http.Client
	userAgent   string
	url         string
	path        string
	metaPath    string
	partialPath string
}

func (d imageDownload) run(ctx context.Context, meta imageMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("AIC-User-Agent", d.userAgent)
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(d.partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: d.url, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.SavedAt = time.Now().UTC()
			_ = writeMeta(d.metaPath, meta)
			return d.path, nil
		}
		return d.run(ctx, imageMeta{}, nil)
	case http.StatusOK:
		return d.save(resp, false)
	case http.StatusPartialContent:
		return d.save(resp, partialSize > 0)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		return "", &NetworkError{URL: d.url, StatusCode: resp.StatusCode, Snippet: strings.TrimSpace(string(body))}
	}
}

func (d imageDownload) save(resp *http.Response, appendExisting bool) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(d.partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(d.partialPath, d.path); err != nil {
		return "", err
	}

	meta := imageMeta{
		URL:          d.url,
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		SavedAt:      time.Now().UTC(),
	}
	if info, err := os.Stat(d.path); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(d.metaPath, meta); err != nil {
		return "", err
	}
	return d.path, nil
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	value = strings.ReplaceAll(value, "/", "-")
	value = strings.ReplaceAll(value, "\\", "-")
	value = strings.ReplaceAll(value, ":", "-")
	value = strings.ReplaceAll(value, "..", "-")
	return value
}

func readMeta(path string) (imageMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return imageMeta{}, err
	}
	var meta imageMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return imageMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta imageMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
