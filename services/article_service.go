package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ainews/database"
	"ainews/models"
)

// MaxTitleLength is the storage bound for article titles. Longer titles are
// truncated at insert, never rejected.
const MaxTitleLength = 255

// Articles dated further than this into the future match the corruption
// signature (known upstream defect: future-dated, mis-encoded items).
const futureDateTolerance = 48 * time.Hour

type ArticleService struct {
	db  *database.DB
	bus *EventBus
}

func NewArticleService(db *database.DB, bus *EventBus) *ArticleService {
	return &ArticleService{db: db, bus: bus}
}

const articleColumns = `id, title, original_content, summary, source_url, source_name, published_at,
	status, featured, view_count, tags, influence_score, education_relevance, created_at, updated_at`

// ExistsBySourceURL is the dedup pre-check; the UNIQUE constraint on
// source_url is the real guard against concurrent inserts.
func (as *ArticleService) ExistsBySourceURL(url string) (bool, error) {
	var count int
	err := as.db.QueryRow(`SELECT COUNT(*) FROM news_articles WHERE source_url = ?`, url).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (as *ArticleService) InsertArticle(article *models.NewsArticle) error {
	tagsJSON, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %v", err)
	}

	title := article.Title
	if len(title) > MaxTitleLength {
		title = truncateTitle(title)
	}

	query := `
		INSERT INTO news_articles (title, original_content, summary, source_url, source_name,
			published_at, status, featured, tags, influence_score, education_relevance, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	result, err := as.db.Exec(query,
		title, article.OriginalContent, article.Summary, article.SourceURL, article.SourceName,
		article.PublishedAt.UTC(), article.Status, article.Featured, string(tagsJSON),
		article.InfluenceScore, article.EducationRelevance,
	)
	if err != nil {
		return err
	}

	articleID, err := result.LastInsertId()
	if err == nil {
		article.ID = int(articleID)
	}
	article.Title = title

	if as.bus != nil {
		as.bus.Publish(EventArticleInserted, fmt.Sprintf("new article: %s (%s)", title, article.SourceName))
	}
	return nil
}

// IsDuplicateError reports whether an insert failed because the source_url
// already exists. Concurrent cycles treat this as "already seen", not a
// persistence failure.
func IsDuplicateError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ArticleQuery filters the article listing. Corrupted rows (implausible
// future dates, mis-decoded entities in the title) are excluded at read time.
type ArticleQuery struct {
	Status   string
	Tag      string
	Featured *bool
	Limit    int
	Offset   int
}

func (as *ArticleService) GetArticles(q ArticleQuery) ([]models.NewsArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM news_articles WHERE ` + corruptionFilter

	var args []interface{}

	if q.Status != "" {
		query += " AND status = ?"
		args = append(args, q.Status)
	}
	if q.Tag != "" {
		query += " AND tags LIKE ?"
		args = append(args, `%"`+q.Tag+`"%`)
	}
	if q.Featured != nil {
		query += " AND featured = ?"
		args = append(args, *q.Featured)
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " ORDER BY published_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	return as.queryArticles(query, args...)
}

const corruptionFilter = `published_at <= datetime('now', '+2 days') AND title NOT LIKE '%&#%'`

func (as *ArticleService) GetArticleByID(id int) (*models.NewsArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM news_articles WHERE id = ?`
	articles, err := as.queryArticles(query, id)
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, sql.ErrNoRows
	}
	return &articles[0], nil
}

func (as *ArticleService) IncrementViewCount(id int) error {
	_, err := as.db.Exec(`UPDATE news_articles SET view_count = view_count + 1 WHERE id = ?`, id)
	return err
}

func (as *ArticleService) SearchArticles(searchQuery string, limit, offset int) ([]models.NewsArticle, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT ` + articleColumns + `
		FROM news_articles
		WHERE (title LIKE ? OR original_content LIKE ?) AND ` + corruptionFilter + `
		ORDER BY published_at DESC
		LIMIT ? OFFSET ?
	`
	pattern := "%" + searchQuery + "%"
	return as.queryArticles(query, pattern, pattern, limit, offset)
}

func (as *ArticleService) GetPendingArticles(limit int) ([]models.NewsArticle, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM news_articles
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`
	return as.queryArticles(query, models.StatusPending, limit)
}

// TransitionStatus moves an article forward in its lifecycle using a
// compare-and-set on the current status, so a status never regresses.
// Returns false when the article was not in the expected state.
func (as *ArticleService) TransitionStatus(id int, from, to string) (bool, error) {
	query := `UPDATE news_articles SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`
	result, err := as.db.Exec(query, to, id, from)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 && as.bus != nil {
		as.bus.Publish(EventArticleUpdated, fmt.Sprintf("article %d: %s -> %s", id, from, to))
	}
	return rowsAffected > 0, nil
}

// PublishWithSummary stores the summary and completes the
// processing -> published transition.
func (as *ArticleService) PublishWithSummary(id int, summary string) (bool, error) {
	query := `
		UPDATE news_articles
		SET summary = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`
	result, err := as.db.Exec(query, summary, models.StatusPublished, id, models.StatusProcessing)
	if err != nil {
		return false, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	if rowsAffected > 0 && as.bus != nil {
		as.bus.Publish(EventArticleUpdated, fmt.Sprintf("article %d published", id))
	}
	return rowsAffected > 0, nil
}

func (as *ArticleService) CountByStatus(status string) (int, error) {
	var count int
	err := as.db.QueryRow(`SELECT COUNT(*) FROM news_articles WHERE status = ?`, status).Scan(&count)
	return count, err
}

// DeleteFailedOlderThan removes failed articles created strictly before the
// cutoff. A row exactly at the cutoff is kept.
func (as *ArticleService) DeleteFailedOlderThan(cutoff time.Time) (int64, error) {
	query := `DELETE FROM news_articles WHERE status = ? AND created_at < ?`
	result, err := as.db.Exec(query, models.StatusFailed, sqliteTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete failed articles: %v", err)
	}
	return result.RowsAffected()
}

// DeleteCorrupted removes articles matching the corruption signature.
func (as *ArticleService) DeleteCorrupted() (int64, error) {
	query := `DELETE FROM news_articles WHERE published_at > datetime('now', '+2 days') OR title LIKE '%&#%'`
	result, err := as.db.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete corrupted articles: %v", err)
	}
	return result.RowsAffected()
}

func (as *ArticleService) GetStats() (*models.PipelineStats, error) {
	stats := &models.PipelineStats{}

	counts := []struct {
		query string
		dest  *int
		args  []interface{}
	}{
		{`SELECT COUNT(*) FROM news_sources`, &stats.TotalSources, nil},
		{`SELECT COUNT(*) FROM news_sources WHERE is_active = TRUE`, &stats.ActiveSources, nil},
		{`SELECT COUNT(*) FROM news_articles`, &stats.TotalArticles, nil},
		{`SELECT COUNT(*) FROM news_articles WHERE status = ?`, &stats.PendingArticles, []interface{}{models.StatusPending}},
		{`SELECT COUNT(*) FROM news_articles WHERE status = ?`, &stats.PublishedArticles, []interface{}{models.StatusPublished}},
		{`SELECT COUNT(*) FROM news_articles WHERE status = ?`, &stats.FailedArticles, []interface{}{models.StatusFailed}},
	}
	for _, c := range counts {
		if err := as.db.QueryRow(c.query, c.args...).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (as *ArticleService) queryArticles(query string, args ...interface{}) ([]models.NewsArticle, error) {
	rows, err := as.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []models.NewsArticle
	for rows.Next() {
		article := models.NewsArticle{}
		var tagsJSON string
		err := rows.Scan(
			&article.ID, &article.Title, &article.OriginalContent, &article.Summary,
			&article.SourceURL, &article.SourceName, &article.PublishedAt,
			&article.Status, &article.Featured, &article.ViewCount, &tagsJSON,
			&article.InfluenceScore, &article.EducationRelevance,
			&article.CreatedAt, &article.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tagsJSON), &article.Tags); err != nil {
			article.Tags = []string{}
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

// truncateTitle cuts at the byte bound without splitting a UTF-8 sequence.
func truncateTitle(title string) string {
	cut := MaxTitleLength
	for cut > 0 && !isRuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// sqliteTime formats a cutoff the same way CURRENT_TIMESTAMP stores it, so
// retention comparisons are exact at the boundary.
func sqliteTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
