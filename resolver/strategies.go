package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/vidfetch/vidfetch/constant"
	"github.com/vidfetch/vidfetch/fetcher"
)

// MaxPageSize caps how much of a page is read. Anything past it is ignored.
const MaxPageSize = 8 << 20

// page fetches and parses the page once per attempt. A failed fetch is remembered
// and makes every page-based strategy fall through.
func (r *Resolver) page(ctx context.Context, a *attempt) (*goquery.Document, bool) {
	if a.fetched {
		return a.doc, a.doc != nil
	}
	a.fetched = true

	log := r.log.WithField("url", a.pageURL)
	result := r.fetcher.Fetch(ctx, a.pageURL, fetcher.AsText(), fetcher.WithRetries(0), fetcher.WithLimit(MaxPageSize))
	if !result.OK() {
		log.WithError(result.Failure).Warn("page unavailable, skipping page strategies")
		return nil, false
	}

	a.body = result.Text()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(a.body))
	if err != nil {
		log.WithError(err).Warn("page is not parseable HTML")
		return nil, false
	}

	log.Debugf("page fetched: %d bytes", len(a.body))
	a.doc = doc
	return doc, true
}

// sniffDirectMedia looks for a playable mp4 in <video src>, then <source src>, then anywhere in the raw body.
func (r *Resolver) sniffDirectMedia(ctx context.Context, a *attempt) (string, Resolution, bool) {
	doc, ok := r.page(ctx, a)
	if !ok {
		return "", Resolution{}, false
	}

	for _, selector := range []string{"video", "source"} {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, ok := s.Attr("src")
			if ok && strings.Contains(strings.ToLower(src), constant.ExtMP4) {
				found = src
				return false
			}
			return true
		})

		if found != "" {
			r.log.WithField("url", a.pageURL).Infof("found mp4 in <%s>: %s", selector, found)
			return "", DirectMediaResolution(absolute(a.parsed, found)), true
		}
	}

	if match := mp4Pattern.FindString(a.body); match != "" {
		r.log.WithField("url", a.pageURL).Infof("found mp4 in page body: %s", match)
		return "", DirectMediaResolution(match), true
	}

	return "", Resolution{}, false
}

func queryIdentifier(_ context.Context, a *attempt) (string, Resolution, bool) {
	if a.parsed == nil {
		return "", Resolution{}, false
	}

	id := strings.TrimSpace(a.parsed.Query().Get(IdentifierParam))
	return id, Resolution{}, id != ""
}

func pathIdentifier(_ context.Context, a *attempt) (string, Resolution, bool) {
	if a.parsed == nil {
		return "", Resolution{}, false
	}

	match := pathIDPattern.FindStringSubmatch(a.parsed.Path)
	if match == nil {
		return "", Resolution{}, false
	}
	return match[1], Resolution{}, true
}

// pageIdentifier scans thumbnail overlays for a 6+ digit id, falling back to any element whose id mentions "video".
func (r *Resolver) pageIdentifier(ctx context.Context, a *attempt) (string, Resolution, bool) {
	doc, ok := r.page(ctx, a)
	if !ok {
		return "", Resolution{}, false
	}

	elements := doc.Find("div.thumb-overlay")
	if elements.Length() == 0 {
		r.log.WithField("url", a.pageURL).Debug("no thumbnail overlays, trying [id*=video]")
		elements = doc.Find("[id*=video]")
	}

	var id string
	elements.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id = elementIDPattern.FindString(s.AttrOr("id", ""))
		return id == ""
	})

	return id, Resolution{}, id != ""
}

// absolute resolves ref against the page URL when possible.
func absolute(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}

	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}
