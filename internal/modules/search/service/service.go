package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"anoa.com/storefront/internal/entity"
	"anoa.com/storefront/pkg/dto"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const rewardsIndex = "rewards"

// CatalogSource reads rewards from the primary store.
type CatalogSource interface {
	ListAll(ctx context.Context) ([]entity.Reward, error)
	SearchByName(ctx context.Context, query string, limit int) ([]entity.Reward, error)
}

type SearchService interface {
	IndexReward(ctx context.Context, reward *entity.Reward) error
	Reindex(ctx context.Context) (int, error)
	SearchRewards(ctx context.Context, query string, limit int) ([]dto.Reward, error)
}

type searchService struct {
	client    meilisearch.ServiceManager
	source    CatalogSource
	sanitizer *bluemonday.Policy
}

// NewSearchService indexes rewards in meilisearch. A nil client serves
// searches from the database instead.
func NewSearchService(client meilisearch.ServiceManager, source CatalogSource) SearchService {
	s := &searchService{
		client:    client,
		source:    source,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndex()
	}
	return s
}

func (s *searchService) initIndex() {
	filterable := []any{"active", "points_required"}
	if _, err := s.client.Index(rewardsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("update rewards filterable attributes", "error", err)
	}

	sortable := []string{"points_required", "created_at"}
	if _, err := s.client.Index(rewardsIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("update rewards sortable attributes", "error", err)
	}
}

type rewardDoc struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Description    string  `json:"description"`
	PointsRequired int     `json:"points_required"`
	ImageURL       *string `json:"image_url,omitempty"`
	Active         bool    `json:"active"`
	CreatedAt      int64   `json:"created_at"`
}

func (s *searchService) toDoc(r *entity.Reward) rewardDoc {
	return rewardDoc{
		ID:             r.ID.String(),
		Name:           r.Name,
		Slug:           r.Slug,
		Description:    s.plainText(r.Description),
		PointsRequired: r.PointsRequired,
		ImageURL:       r.ImageURL,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt.Unix(),
	}
}

// plainText strips markup so that tags are not matched by search.
func (s *searchService) plainText(content string) string {
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>", "</li>"} {
		content = strings.ReplaceAll(content, tag, " ")
	}
	text := html.UnescapeString(s.sanitizer.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

func (s *searchService) IndexReward(ctx context.Context, reward *entity.Reward) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(rewardsIndex).AddDocuments([]rewardDoc{s.toDoc(reward)}, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index reward %s: %w", reward.ID, err)
	}
	return nil
}

// Reindex pushes the whole catalog. It returns the number of documents sent.
func (s *searchService) Reindex(ctx context.Context) (int, error) {
	if s.client == nil {
		return 0, nil
	}

	rewards, err := s.source.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(rewards) == 0 {
		return 0, nil
	}

	docs := make([]rewardDoc, len(rewards))
	for i := range rewards {
		docs[i] = s.toDoc(&rewards[i])
	}
	task, err := s.client.Index(rewardsIndex).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return 0, fmt.Errorf("reindex rewards: %w", err)
	}
	slog.Info("rewards reindexed", "documents", len(docs), "task_uid", task.TaskUID)
	return len(docs), nil
}

func (s *searchService) SearchRewards(ctx context.Context, query string, limit int) ([]dto.Reward, error) {
	query = strings.TrimSpace(query)
	if limit < 1 || limit > 50 {
		limit = 20
	}

	if s.client != nil {
		res, err := s.client.Index(rewardsIndex).Search(query, &meilisearch.SearchRequest{
			Filter: "active = true",
			Limit:  int64(limit),
		})
		if err == nil {
			return decodeHits(res.Hits)
		}
		slog.Warn("meilisearch query failed, using database", "error", err)
	}

	rewards, err := s.source.SearchByName(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Reward, len(rewards))
	for i, r := range rewards {
		out[i] = dto.Reward{
			ID:             r.ID,
			Name:           r.Name,
			Slug:           r.Slug,
			Description:    r.Description,
			PointsRequired: r.PointsRequired,
			ImageURL:       r.ImageURL,
		}
	}
	return out, nil
}

// decodeHits converts raw meilisearch hits into catalog entries.
func decodeHits(hits any) ([]dto.Reward, error) {
	raw, err := json.Marshal(hits)
	if err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}
	var docs []rewardDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}

	out := make([]dto.Reward, 0, len(docs))
	for _, d := range docs {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			continue
		}
		out = append(out, dto.Reward{
			ID:             id,
			Name:           d.Name,
			Slug:           d.Slug,
			Description:    d.Description,
			PointsRequired: d.PointsRequired,
			ImageURL:       d.ImageURL,
		})
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}
