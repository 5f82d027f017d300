package artwork

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/url"
	"regexp"
)

const (
	lastFMRoot = "http://ws.audioscrobbler.com/2.0"
	lastFMKey  = "7a2babf6de98a321d3da7a8e46265f76"

	albumArtRoot = "http://www.albumart.org/index.php"
)

// last.fm image sizes in preference order
var imageSizes = []string{"extralarge", "large", "medium", "small"}

var albumArtImages = regexp.MustCompile(`title="(.+?)".*src=.*href="(.+?)".*zoom-icon\.jpg`)

// provider resolves an (artist, album) pair to an image URL. An empty
// result means the provider has nothing.
type provider func(ctx context.Context, client *http.Client, artist, album string) string

// lastFMURL asks the last.fm album.getinfo API and picks the largest image
// offered
func lastFMURL(ctx context.Context, client *http.Client, artist, album string) string {
	query := url.Values{
		"method":  {"album.getinfo"},
		"api_key": {lastFMKey},
		"artist":  {artist},
		"album":   {album},
	}
	body, err := fetch(ctx, client, lastFMRoot+"/?"+query.Encode())
	if err != nil {
		log.WithError(err).Debug("last.fm fetch failed")
		return ""
	}

	var answer struct {
		Images []struct {
			Size string `xml:"size,attr"`
			URL  string `xml:",chardata"`
		} `xml:"album>image"`
	}
	if err := xml.Unmarshal(body, &answer); err != nil {
		log.WithError(err).Debug("last.fm answer unparsable")
		return ""
	}
	bySize := make(map[string]string, len(answer.Images))
	for _, img := range answer.Images {
		bySize[img.Size] = img.URL
	}
	for _, size := range imageSizes {
		if u := bySize[size]; u != "" {
			return u
		}
	}
	return ""
}

// albumArtURL scrapes the albumart.org search results, preferring the entry
// whose title matches the album
func albumArtURL(ctx context.Context, client *http.Client, artist, album string) string {
	query := url.Values{
		"itempage":    {"1"},
		"newsearch":   {"1"},
		"searchindex": {"Music"},
		"srchkey":     {artist + " " + album},
	}
	body, err := fetch(ctx, client, albumArtRoot+"?"+query.Encode())
	if err != nil {
		log.WithError(err).Debug("albumart.org fetch failed")
		return ""
	}

	matches := albumArtImages.FindAllStringSubmatch(string(body), -1)
	for _, m := range matches {
		if CleanName(m[1]) == CleanName(album) {
			return m[2]
		}
	}
	// no exact title match, take the first hit
	if len(matches) > 0 {
		return matches[0][2]
	}
	return ""
}

func fetch(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
