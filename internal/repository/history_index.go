package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"bus-tracking-services/internal/common/database"
	"bus-tracking-services/internal/models"
)

// HistoryIndex mirrors audit records into a search index.
type HistoryIndex interface {
	Index(ctx context.Context, h *models.NotificationHistory) error
	Search(ctx context.Context, q models.HistorySearch) ([]*models.NotificationHistory, int64, error)
}

type esHistoryIndex struct {
	client *database.ElasticsearchClient
	index  string
}

func NewHistoryIndex(client *database.ElasticsearchClient, index string) HistoryIndex {
	return &esHistoryIndex{client: client, index: index}
}

func (e *esHistoryIndex) Index(ctx context.Context, h *models.NotificationHistory) error {
	return e.client.IndexDocument(ctx, e.index, strconv.FormatInt(h.ID, 10), h)
}

func (e *esHistoryIndex) Search(ctx context.Context, q models.HistorySearch) ([]*models.NotificationHistory, int64, error) {
	res, err := e.client.Search(ctx, e.index, buildHistoryQuery(q), ClampLimit(q.Limit))
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.NotificationHistory, 0, len(res.Sources))
	for _, src := range res.Sources {
		h := &models.NotificationHistory{}
		if err := json.Unmarshal(src, h); err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, res.TotalHits, nil
}

func buildHistoryQuery(q models.HistorySearch) map[string]interface{} {
	must := []interface{}{}
	if q.Query != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"message": q.Query},
		})
	}

	filter := []interface{}{}
	if q.UserID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"user_id.keyword": q.UserID},
		})
	}
	if q.Status != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"status.keyword": q.Status},
		})
	}

	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"timestamp": map[string]interface{}{"order": "desc"}},
		},
	}
}
