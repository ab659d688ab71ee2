package notion

import (
	"context"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// Deal is one scored deal to push to the tracker database.
type Deal struct {
	Name       string
	Metro      string
	Submarket  string
	Score      *float64
	Confidence string
	Rationale  string
	ScoredAt   time.Time
}

// QueryAll fetches all pages from a database, following pagination cursors.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	req := &notionapi.DatabaseQueryRequest{}
	if filter != nil {
		req.Filter = filter.Filter
		req.Sorts = filter.Sorts
		req.PageSize = filter.PageSize
	}

	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			break
		}
		req = &notionapi.DatabaseQueryRequest{StartCursor: resp.NextCursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
	}
	return all, nil
}

// findDealPage looks up an existing tracker page by deal name.
func findDealPage(ctx context.Context, c Client, dbID, name string) (*notionapi.Page, error) {
	resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: "Name",
			RichText: &notionapi.TextFilterCondition{Equals: name},
		},
		PageSize: 1,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "notion: find deal %s", name)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}
	return &resp.Results[0], nil
}

func dealProperties(d Deal) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: d.Name}}},
		},
		"Scored At": notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: (*notionapi.Date)(&d.ScoredAt)},
		},
	}
	if d.Score != nil {
		props["Score"] = notionapi.NumberProperty{Number: *d.Score}
	}
	if d.Confidence != "" {
		props["Confidence"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: d.Confidence},
		}
	}
	if d.Metro != "" {
		props["Metro"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: d.Metro}}},
		}
	}
	if d.Submarket != "" {
		props["Submarket"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: d.Submarket}}},
		}
	}
	if d.Rationale != "" {
		props["Rationale"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: d.Rationale}}},
		}
	}
	return props
}

// UpsertDeal creates the deal's tracker page, or updates it when a page with
// the same name already exists. Returns the page ID.
func UpsertDeal(ctx context.Context, c Client, dbID string, d Deal) (string, error) {
	if d.Name == "" {
		return "", eris.New("notion: deal name is required")
	}
	if d.ScoredAt.IsZero() {
		d.ScoredAt = time.Now().UTC()
	}

	existing, err := findDealPage(ctx, c, dbID, d.Name)
	if err != nil {
		return "", err
	}

	props := dealProperties(d)
	if existing != nil {
		page, err := c.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{Properties: props})
		if err != nil {
			return "", eris.Wrapf(err, "notion: update deal %s", d.Name)
		}
		return string(page.ID), nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent:     notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: notionapi.DatabaseID(dbID)},
		Properties: props,
	})
	if err != nil {
		return "", eris.Wrapf(err, "notion: create deal %s", d.Name)
	}
	return string(page.ID), nil
}
