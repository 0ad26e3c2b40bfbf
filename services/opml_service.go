package services

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/gilliek/go-opml/opml"
)

// OPMLService imports and exports the news-source list as OPML, so admins can
// move source sets between feed tools.
type OPMLService struct {
	sources *SourceService
}

func NewOPMLService(sources *SourceService) *OPMLService {
	return &OPMLService{sources: sources}
}

// ImportResult holds the results of an OPML import operation
type ImportResult struct {
	TotalSources    int      `json:"total_sources"`
	ImportedSources int      `json:"imported_sources"`
	SkippedSources  int      `json:"skipped_sources"`
	Errors          []string `json:"errors,omitempty"`
}

// ImportOPML adds every feed outline as a news source. Outlines whose URL is
// already configured are skipped.
func (os *OPMLService) ImportOPML(opmlData []byte) (*ImportResult, error) {
	var doc opml.OPML
	if err := xml.Unmarshal(opmlData, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for _, outline := range doc.Body.Outlines {
		os.processOutline(&outline, result)
	}
	return result, nil
}

func (os *OPMLService) processOutline(outline *opml.Outline, result *ImportResult) {
	if outline.XMLURL != "" {
		result.TotalSources++

		existing, err := os.sources.GetSourceByURL(outline.XMLURL)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("lookup %s: %v", outline.XMLURL, err))
			return
		}
		if existing != nil {
			result.SkippedSources++
			return
		}

		name := outline.Title
		if name == "" {
			name = outline.Text
		}
		if name == "" {
			name = outline.XMLURL
		}

		if _, err := os.sources.AddSource(name, outline.XMLURL, "rss"); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import %s: %v", outline.XMLURL, err))
			return
		}
		result.ImportedSources++
	}

	// Folder outlines just nest more feeds; flatten them
	for i := range outline.Outlines {
		os.processOutline(&outline.Outlines[i], result)
	}
}

// ExportOPML exports all configured sources to OPML format.
func (os *OPMLService) ExportOPML() ([]byte, error) {
	sources, err := os.sources.GetAllSources()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %v", err)
	}

	doc := opml.OPML{
		Version: "2.0",
		Head: opml.Head{
			Title:        "AI News Sources Export",
			DateCreated:  time.Now().Format(time.RFC1123Z),
			DateModified: time.Now().Format(time.RFC1123Z),
		},
		Body: opml.Body{
			Outlines: make([]opml.Outline, 0, len(sources)),
		},
	}

	for _, source := range sources {
		doc.Body.Outlines = append(doc.Body.Outlines, opml.Outline{
			Type:   "rss",
			Text:   source.Name,
			Title:  source.Name,
			XMLURL: source.URL,
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal OPML: %v", err)
	}
	return append([]byte(xml.Header), data...), nil
}
