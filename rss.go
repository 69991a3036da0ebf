package cmsloader

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const dublinCoreNS = "http://purl.org/dc/elements/1.1/"

// rssXML is an RSS 2.0 document. Item authors are names, not the email
// addresses <author> requires, so they go in dc:creator.
type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	DC      string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Creator     string   `xml:"dc:creator,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
}

// buildFeed builds the RSS 2.0 document for entries.
func buildFeed(cfg ServerConfig, entries []Entry) rssXML {
	base := cfg.URL
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		link := BuildURL(base, "blog", e.ID)
		items = append(items, rssItem{
			Title:       e.Data.Title,
			Link:        link,
			Description: e.Data.Description,
			Creator:     e.Data.Author,
			Categories:  e.Data.Tags,
			PubDate:     e.Data.Published.Format(time.RFC1123Z),
			GUID:        link,
		})
	}
	return rssXML{
		Version: "2.0",
		DC:      dublinCoreNS,
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        BuildURL(base),
			Description: cfg.Description,
			Items:       items,
		},
	}
}

func (s *Server) renderRSS(c echo.Context, entries []Entry) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(buildFeed(s.Config, entries))
}
