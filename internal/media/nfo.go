package media

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// xmlTVShow mirrors the XML layout of Kodi-style tvshow.nfo files
type xmlTVShow struct {
	Title         string  `xml:"title"`
	OriginalTitle string  `xml:"originaltitle"`
	Plot          string  `xml:"plot"`
	Genres        []string `xml:"genre"`
	Premiered     string  `xml:"premiered"`
	Rating        float32 `xml:"rating"`
	Studio        string  `xml:"studio"`
	Actors        []struct {
		Name  string `xml:"name"`
		Role  string `xml:"role"`
		Order int    `xml:"order"`
	} `xml:"actor"`
	Aired  string `xml:"aired"`
	Year   int    `xml:"year"`
	Season int    `xml:"season"`
}

// NFOReader reads show metadata from NFO files
type NFOReader struct{}

// NewNFOReader creates a new NFO reader
func NewNFOReader() *NFOReader {
	return &NFOReader{}
}

// ReadTVShowInfo reads TV show information from an NFO file
func (r *NFOReader) ReadTVShowInfo(path string) (*TVShowInfo, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".nfo") {
		return nil, fmt.Errorf("file extension must be .nfo: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read NFO file: %w", err)
	}

	var xmlShow xmlTVShow
	if err := xml.Unmarshal(data, &xmlShow); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	show := &TVShowInfo{
		Title:         strings.TrimSpace(xmlShow.Title),
		OriginalTitle: strings.TrimSpace(xmlShow.OriginalTitle),
		Plot:          strings.TrimSpace(xmlShow.Plot),
		Premiered:     strings.TrimSpace(xmlShow.Premiered),
		Rating:        xmlShow.Rating,
		Studio:        strings.TrimSpace(xmlShow.Studio),
		Aired:         strings.TrimSpace(xmlShow.Aired),
		Year:          xmlShow.Year,
		Season:        xmlShow.Season,
	}

	for _, g := range xmlShow.Genres {
		if genre := strings.TrimSpace(g); genre != "" {
			show.Genre = append(show.Genre, genre)
		}
	}

	for _, a := range xmlShow.Actors {
		if name := strings.TrimSpace(a.Name); name != "" {
			show.Actors = append(show.Actors, Actor{
				Name:  name,
				Role:  strings.TrimSpace(a.Role),
				Order: a.Order,
			})
		}
	}

	return show, nil
}
