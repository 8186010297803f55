package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/cybersalt/cs-sponsored-articles/internal/database"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
)

const (
	// SponsoredValue is the stored field value meaning "Yes".
	SponsoredValue = "1"
	// LinkCMarker is the Link C text the earlier plugin generation used.
	LinkCMarker = "sponsored1"

	publishedState = 1
)

// SponsorRepository finds sponsored, published articles.
type SponsorRepository struct {
	db     *sqlx.DB
	tables database.Tables
}

// NewSponsorRepository creates a new sponsor repository.
func NewSponsorRepository(db *sqlx.DB, tables database.Tables) *SponsorRepository {
	return &SponsorRepository{db: db, tables: tables}
}

// ByField returns published articles whose custom field fieldName is "1".
func (r *SponsorRepository) ByField(ctx context.Context, fieldName string) ([]domain.Article, error) {
	query := r.tables.Q(`
		SELECT c.id, c.alias
		FROM #__content c
		JOIN #__fields_values v ON v.item_id = CAST(c.id AS TEXT)
		JOIN #__fields f ON f.id = v.field_id
		WHERE f.name = $1
		  AND f.context = $2
		  AND v.value = $3
		  AND c.state = $4
		ORDER BY c.id`)

	var articles []domain.Article
	err := r.db.SelectContext(ctx, &articles, query, fieldName, domain.ArticleContext, SponsoredValue, publishedState)
	if err != nil {
		return nil, fmt.Errorf("select sponsored articles: %w", err)
	}
	return articles, nil
}

// ByLinkC returns published articles whose Link C text is "sponsored1".
// The links column is JSON text, so the comparison happens here rather
// than in SQL; malformed JSON is skipped.
func (r *SponsorRepository) ByLinkC(ctx context.Context) ([]domain.Article, error) {
	query := r.tables.Q(`
		SELECT id, alias, urls
		FROM #__content
		WHERE state = $1
		ORDER BY id`)

	rows, err := r.db.QueryxContext(ctx, query, publishedState)
	if err != nil {
		return nil, fmt.Errorf("select published articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err = rows.StructScan(&a); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		if a.URLs != nil && linkCText(*a.URLs) == LinkCMarker {
			articles = append(articles, a)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

func linkCText(urls string) string {
	if urls == "" {
		return ""
	}
	var links struct {
		URLCText string `json:"urlctext"`
		// key written by the earlier plugin generation
		URLLText string `json:"urlltext"`
	}
	if err := json.Unmarshal([]byte(urls), &links); err != nil {
		return ""
	}
	if text := strings.TrimSpace(links.URLLText); text != "" {
		return text
	}
	return strings.TrimSpace(links.URLCText)
}
