// Package audit checks stored content for problems that validation does not
// catch at edit time, like image blocks pointing at dead URLs.
package audit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/az-math/azmath/internal/content"
	"github.com/az-math/azmath/internal/datasync"
	"github.com/az-math/azmath/internal/store"
)

// Finding is one image URL that did not answer with a success status.
type Finding struct {
	Collection string
	DocID      string
	URL        string
	StatusCode int
	Err        string
}

// ImageAuditor walks every image block in the store and HEAD-requests its
// URL. Edit time never validates image URLs, so this is the only place dead
// images surface.
type ImageAuditor struct {
	source datasync.Source
	client *resty.Client
}

// NewImageAuditor creates an ImageAuditor.
func NewImageAuditor(source datasync.Source) *ImageAuditor {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetHeader("User-Agent", "azmath-audit")
	return &ImageAuditor{source: source, client: client}
}

// Run checks both collections and returns one finding per unreachable
// image. Checked URLs are deduplicated across documents.
func (a *ImageAuditor) Run(ctx context.Context) ([]Finding, error) {
	var findings []Finding
	checked := make(map[string]Finding)
	seen := make(map[string]bool)

	for _, collection := range []string{store.CollectionLessons, store.CollectionProblems} {
		docs, err := a.source.Query(ctx, collection, store.Filter{}, false)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		for _, doc := range docs {
			for _, url := range imageURLs(collection, doc) {
				if seen[url] {
					if f, bad := checked[url]; bad {
						f.Collection = collection
						f.DocID = doc.ID
						findings = append(findings, f)
					}
					continue
				}
				seen[url] = true

				finding, ok := a.check(ctx, url)
				if !ok {
					finding.Collection = collection
					finding.DocID = doc.ID
					checked[url] = finding
					findings = append(findings, finding)
				}
			}
		}
	}
	return findings, nil
}

func (a *ImageAuditor) check(ctx context.Context, url string) (Finding, bool) {
	var resp *resty.Response
	err := retry.Do(
		func() error {
			var reqErr error
			resp, reqErr = a.client.R().SetContext(ctx).Head(url)
			return reqErr
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Finding{URL: url, Err: err.Error()}, false
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return Finding{URL: url, StatusCode: resp.StatusCode()}, false
	}
	return Finding{}, true
}

func imageURLs(collection string, doc store.Document) []string {
	var blocks []content.Block
	if collection == store.CollectionLessons {
		blocks = content.HydrateLesson(doc.Body).Blocks
	} else {
		problem := content.HydrateProblem(doc.Body)
		blocks = append(blocks, problem.Statement...)
		for _, solution := range problem.Solutions {
			blocks = append(blocks, solution.Blocks...)
		}
	}

	var urls []string
	for _, b := range blocks {
		if img, ok := b.(content.ImageBlock); ok && img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}
