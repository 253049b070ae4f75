package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EnrichFromHTML fills blank fields from the raw profile HTML snippet some
// client versions attach instead of flat fields. Best effort: a snippet that
// fails to parse changes nothing.
func EnrichFromHTML(ev *ContactEvent) {
	if ev.ProfileHTML == "" {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(ev.ProfileHTML))
	if err != nil {
		return
	}

	if ev.Title == "" {
		ev.Title = CleanText(doc.Find(".headline, h2").First().Text())
	}
	if ev.Location == "" {
		ev.Location = CleanText(doc.Find(".location").First().Text())
	}
	if ev.WebsiteURL == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			href = CleanText(href)
			if !strings.HasPrefix(href, "http") {
				return true
			}
			ev.WebsiteURL = href
			if ev.WebsiteText == "" {
				ev.WebsiteText = CleanText(sel.Text())
			}
			return false
		})
	}
}
