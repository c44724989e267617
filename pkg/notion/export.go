package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/model"
)

// ExportRecords creates one page per enrichment record in the target
// database. The database needs a "Name" title property; the remaining
// fields land in rich-text and select properties of the same names the
// CSV export uses. Records whose name already titles a page in the
// database are skipped, so re-exporting a run does not duplicate pages.
// Returns the number of pages created; the export stops at the first
// failure.
func ExportRecords(ctx context.Context, c Client, dbID string, records []model.EnrichedRecord) (int, error) {
	existing, err := existingNames(ctx, c, dbID)
	if err != nil {
		return 0, err
	}

	created, skipped := 0, 0
	for _, r := range records {
		if _, ok := existing[r.Name]; ok {
			skipped++
			continue
		}
		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(dbID),
			},
			Properties: recordProperties(r),
		}
		if _, err := c.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "notion: export record %q", r.Name)
		}
		created++
	}
	zap.L().Info("exported records to notion",
		zap.Int("created", created), zap.Int("skipped", skipped), zap.String("database", dbID))
	return created, nil
}

// existingNames pages through the database and collects the title of every
// page, keyed for the duplicate check above.
func existingNames(ctx context.Context, c Client, dbID string) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	req := &notionapi.DatabaseQueryRequest{PageSize: 100}
	for {
		resp, err := c.QueryDatabase(ctx, dbID, req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: list existing pages")
		}
		for _, page := range resp.Results {
			if name := pageTitle(page); name != "" {
				names[name] = struct{}{}
			}
		}
		if !resp.HasMore {
			return names, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

func pageTitle(page notionapi.Page) string {
	prop, ok := page.Properties["Name"]
	if !ok {
		return ""
	}
	var title []notionapi.RichText
	switch t := prop.(type) {
	case *notionapi.TitleProperty:
		title = t.Title
	case notionapi.TitleProperty:
		title = t.Title
	default:
		return ""
	}
	if len(title) == 0 {
		return ""
	}
	if title[0].PlainText != "" {
		return title[0].PlainText
	}
	if title[0].Text != nil {
		return title[0].Text.Content
	}
	return ""
}

func recordProperties(r model.EnrichedRecord) notionapi.Properties {
	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: r.Name}}},
		},
		"Company":        textProperty(r.Company),
		"Revenue":        textProperty(r.Revenue),
		"Sector":         textProperty(r.Sector),
		"Job Title":      textProperty(r.JobTitle),
		"Decision Maker": selectProperty(r.DecisionMaker),
		"Confidence":     selectProperty(r.Confidence),
	}
}

func textProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func selectProperty(s string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Select: notionapi.Option{Name: s}}
}
