package services

import (
	"database/sql"
	"fmt"
	"strings"

	"ainews/database"
	"ainews/models"
)

// DefaultSources is the bootstrap set of reputable AI-news feeds. Bootstrap
// upserts by URL and deactivates sources outside this set; it never deletes
// rows or resets last_fetched checkpoints.
var DefaultSources = []models.NewsSource{
	{Name: "MIT Technology Review - AI", URL: "https://www.technologyreview.com/topic/artificial-intelligence/feed", SourceType: "rss"},
	{Name: "Google AI Blog", URL: "https://blog.google/technology/ai/rss/", SourceType: "rss"},
	{Name: "OpenAI Blog", URL: "https://openai.com/blog/rss.xml", SourceType: "rss"},
	{Name: "DeepMind Blog", URL: "https://deepmind.google/blog/rss.xml", SourceType: "rss"},
	{Name: "VentureBeat AI", URL: "https://venturebeat.com/category/ai/feed/", SourceType: "rss"},
	{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml", SourceType: "rss"},
	{Name: "EdSurge", URL: "https://www.edsurge.com/articles_rss", SourceType: "rss"},
}

type SourceService struct {
	db *database.DB
}

func NewSourceService(db *database.DB) *SourceService {
	return &SourceService{db: db}
}

const sourceColumns = `id, name, url, source_type, is_active, last_fetched, fetch_interval, created_at, updated_at`

func (ss *SourceService) GetActiveSources() ([]models.NewsSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources WHERE is_active = TRUE ORDER BY name`
	return ss.querySources(query)
}

func (ss *SourceService) GetAllSources() ([]models.NewsSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources ORDER BY name`
	return ss.querySources(query)
}

func (ss *SourceService) GetSourceByURL(url string) (*models.NewsSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources WHERE url = ? LIMIT 1`
	source := &models.NewsSource{}
	err := ss.db.QueryRow(query, url).Scan(
		&source.ID, &source.Name, &source.URL, &source.SourceType, &source.IsActive,
		&source.LastFetched, &source.FetchInterval, &source.CreatedAt, &source.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (ss *SourceService) AddSource(name, url, sourceType string) (*models.NewsSource, error) {
	name = strings.TrimSpace(name)
	url = strings.TrimSpace(url)
	if name == "" || url == "" {
		return nil, fmt.Errorf("source name and URL are required")
	}
	if sourceType == "" {
		sourceType = "rss"
	}

	query := `
		INSERT INTO news_sources (name, url, source_type, is_active, updated_at)
		VALUES (?, ?, ?, TRUE, CURRENT_TIMESTAMP)
	`
	result, err := ss.db.Exec(query, name, url, sourceType)
	if err != nil {
		return nil, fmt.Errorf("failed to insert source: %v", err)
	}

	sourceID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get source ID: %v", err)
	}
	return ss.GetSourceByID(int(sourceID))
}

func (ss *SourceService) GetSourceByID(id int) (*models.NewsSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM news_sources WHERE id = ?`
	source := &models.NewsSource{}
	err := ss.db.QueryRow(query, id).Scan(
		&source.ID, &source.Name, &source.URL, &source.SourceType, &source.IsActive,
		&source.LastFetched, &source.FetchInterval, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func (ss *SourceService) SetActive(id int, active bool) error {
	query := `UPDATE news_sources SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := ss.db.Exec(query, active, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateLastFetched sets the source checkpoint after a successful poll.
func (ss *SourceService) UpdateLastFetched(id int) error {
	query := `UPDATE news_sources SET last_fetched = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	_, err := ss.db.Exec(query, id)
	return err
}

func (ss *SourceService) CountActive() (int, error) {
	var count int
	err := ss.db.QueryRow(`SELECT COUNT(*) FROM news_sources WHERE is_active = TRUE`).Scan(&count)
	return count, err
}

// BootstrapDefaults upserts the default source set by URL. Sources already
// present keep their id and last_fetched; sources outside the default set are
// deactivated rather than deleted.
func (ss *SourceService) BootstrapDefaults() error {
	defaultURLs := make([]string, 0, len(DefaultSources))

	for _, def := range DefaultSources {
		defaultURLs = append(defaultURLs, def.URL)

		existing, err := ss.GetSourceByURL(def.URL)
		if err != nil {
			return fmt.Errorf("failed to look up source %s: %v", def.URL, err)
		}

		if existing == nil {
			insert := `
				INSERT INTO news_sources (name, url, source_type, is_active, updated_at)
				VALUES (?, ?, ?, TRUE, CURRENT_TIMESTAMP)
			`
			if _, err := ss.db.Exec(insert, def.Name, def.URL, def.SourceType); err != nil {
				return fmt.Errorf("failed to insert default source %s: %v", def.Name, err)
			}
			continue
		}

		update := `
			UPDATE news_sources
			SET name = ?, source_type = ?, is_active = TRUE, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
		if _, err := ss.db.Exec(update, def.Name, def.SourceType, existing.ID); err != nil {
			return fmt.Errorf("failed to update default source %s: %v", def.Name, err)
		}
	}

	// Deactivate everything not in the default set
	placeholders := strings.Repeat("?,", len(defaultURLs))
	placeholders = strings.TrimSuffix(placeholders, ",")
	deactivate := `
		UPDATE news_sources
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE url NOT IN (` + placeholders + `)
	`
	args := make([]interface{}, len(defaultURLs))
	for i, url := range defaultURLs {
		args[i] = url
	}
	if _, err := ss.db.Exec(deactivate, args...); err != nil {
		return fmt.Errorf("failed to deactivate non-default sources: %v", err)
	}

	return nil
}

func (ss *SourceService) querySources(query string, args ...interface{}) ([]models.NewsSource, error) {
	rows, err := ss.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []models.NewsSource
	for rows.Next() {
		source := models.NewsSource{}
		err := rows.Scan(
			&source.ID, &source.Name, &source.URL, &source.SourceType, &source.IsActive,
			&source.LastFetched, &source.FetchInterval, &source.CreatedAt, &source.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}
