package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"

	"ainews/config"
	"ainews/models"
	"ainews/services"
)

type NewsHandlers struct {
	articles *services.ArticleService
	cfg      *config.Config
}

func NewNewsHandlers(articles *services.ArticleService, cfg *config.Config) *NewsHandlers {
	return &NewsHandlers{articles: articles, cfg: cfg}
}

func (nh *NewsHandlers) GetNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := services.ArticleQuery{
		Status: query.Get("status"),
		Tag:    query.Get("tag"),
	}

	if featuredStr := query.Get("featured"); featuredStr != "" {
		if featured, err := strconv.ParseBool(featuredStr); err == nil {
			q.Featured = &featured
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			q.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			q.Offset = offset
		}
	}

	articles, err := nh.articles.GetArticles(q)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (nh *NewsHandlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	articleID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Invalid article ID", http.StatusBadRequest)
		return
	}

	article, err := nh.articles.GetArticleByID(articleID)
	if err != nil {
		http.Error(w, "Article not found", http.StatusNotFound)
		return
	}

	if err := nh.articles.IncrementViewCount(articleID); err == nil {
		article.ViewCount++
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: article})
}

func (nh *NewsHandlers) SearchNews(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	searchQuery := query.Get("q")
	if searchQuery == "" {
		http.Error(w, "Search query is required", http.StatusBadRequest)
		return
	}

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	articles, err := nh.articles.SearchArticles(searchQuery, limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (nh *NewsHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := nh.articles.GetStats()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: stats})
}

// GetRSS serves the published articles back out as an RSS 2.0 feed.
func (nh *NewsHandlers) GetRSS(w http.ResponseWriter, r *http.Request) {
	articles, err := nh.articles.GetArticles(services.ArticleQuery{
		Status: models.StatusPublished,
		Limit:  50,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch articles: %v", err), http.StatusInternalServerError)
		return
	}

	feed := &feeds.Feed{
		Title:       nh.cfg.FeedTitle,
		Link:        &feeds.Link{Href: nh.cfg.PublicURL},
		Description: nh.cfg.FeedDescription,
	}

	feed.Items = make([]*feeds.Item, 0, len(articles))
	for i := range articles {
		article := &articles[i]

		description := article.OriginalContent
		if article.Summary != nil && *article.Summary != "" {
			description = *article.Summary
		}
		if len(description) > 500 {
			description = description[:500] + "..."
		}

		feed.Items = append(feed.Items, &feeds.Item{
			Title:       article.Title,
			Link:        &feeds.Link{Href: article.SourceURL},
			Id:          fmt.Sprintf("%s/api/news/%d", nh.cfg.PublicURL, article.ID),
			Description: description,
			Author:      &feeds.Author{Name: article.SourceName},
			Created:     article.PublishedAt,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to generate RSS: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(rss))
}
