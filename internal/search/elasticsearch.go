package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"pujabook/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Config содержит конфигурацию для подключения к Elasticsearch
type Config struct {
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
}

// Enabled reports whether a cluster address is configured
func (c Config) Enabled() bool {
	return c.URL != ""
}

// pujaDocument - документ индекса каталога
type pujaDocument struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ElasticsearchClient представляет клиент для работы с индексом пудж
type ElasticsearchClient struct {
	client *elasticsearch.Client
	config Config
}

// NewElasticsearchClient создает новый клиент Elasticsearch
func NewElasticsearchClient(cfg Config) (*ElasticsearchClient, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.URL},
		Username:      cfg.Username,
		Password:      cfg.Password,
		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	client := &ElasticsearchClient{
		client: es,
		config: cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure index exists: %w", err)
	}

	return client, nil
}

// ensureIndex создает индекс если он не существует
func (c *ElasticsearchClient) ensureIndex(ctx context.Context) error {
	req := esapi.IndicesExistsRequest{
		Index: []string{c.config.Index},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		slog.Info("Elasticsearch index already exists", "index", c.config.Index)
		return nil
	}

	// Названия пудж транслитерированы, поэтому edge n-gram вместо языкового стеммера
	mapping := map[string]any{
		"settings": map[string]any{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"analysis": map[string]any{
				"analyzer": map[string]any{
					"name_prefix": map[string]any{
						"type":      "custom",
						"tokenizer": "standard",
						"filter":    []string{"lowercase", "asciifolding", "name_edge"},
					},
				},
				"filter": map[string]any{
					"name_edge": map[string]any{
						"type":     "edge_ngram",
						"min_gram": 2,
						"max_gram": 20,
					},
				},
			},
		},
		"mappings": map[string]any{
			"properties": map[string]any{
				"id": map[string]any{"type": "long"},
				"name": map[string]any{
					"type":            "text",
					"analyzer":        "name_prefix",
					"search_analyzer": "standard",
					"fields": map[string]any{
						"keyword": map[string]any{
							"type":         "keyword",
							"ignore_above": 256,
						},
					},
				},
				"description": map[string]any{
					"type":     "text",
					"analyzer": "english",
				},
				"updated_at": map[string]any{"type": "date"},
			},
		},
	}

	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}

	createReq := esapi.IndicesCreateRequest{
		Index: c.config.Index,
		Body:  strings.NewReader(string(mappingJSON)),
	}

	createRes, err := createReq.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.String())
	}

	slog.Info("Created Elasticsearch index", "index", c.config.Index)
	return nil
}

// Search возвращает id пудж в порядке релевантности и общее число совпадений
func (c *ElasticsearchClient) Search(ctx context.Context, query string, from, size int) ([]int64, int64, error) {
	if size <= 0 {
		size = 10
	}

	searchRequest := map[string]any{
		"query":   buildSearchQuery(query),
		"sort":    buildSortQuery(query),
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}

	searchJSON, err := json.Marshal(searchRequest)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{c.config.Index},
		Body:           strings.NewReader(string(searchJSON)),
		TrackTotalHits: true,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("search error: %s", res.String())
	}

	var response struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source pujaDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode search response: %w", err)
	}

	ids := make([]int64, len(response.Hits.Hits))
	for i, hit := range response.Hits.Hits {
		ids[i] = hit.Source.ID
	}

	return ids, response.Hits.Total.Value, nil
}

func buildSearchQuery(query string) map[string]any {
	if strings.TrimSpace(query) == "" {
		return map[string]any{
			"match_all": map[string]any{},
		}
	}

	return map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"name^3", "description"},
			"fuzziness": "AUTO",
		},
	}
}

func buildSortQuery(query string) []map[string]any {
	if strings.TrimSpace(query) != "" {
		return []map[string]any{
			{"_score": map[string]any{"order": "desc"}},
			{"id": map[string]any{"order": "asc"}},
		}
	}
	return []map[string]any{
		{"id": map[string]any{"order": "asc"}},
	}
}

// IndexPuja индексирует или переиндексирует пуджу
func (c *ElasticsearchClient) IndexPuja(ctx context.Context, puja *models.Puja) error {
	doc := pujaDocument{
		ID:        puja.ID,
		Name:      puja.Name,
		UpdatedAt: puja.UpdatedAt,
	}
	if puja.Description != nil {
		doc.Description = *puja.Description
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal puja: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(puja.ID, 10),
		Body:       strings.NewReader(string(docJSON)),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to index puja: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing error: %s", res.String())
	}

	return nil
}

// DeletePuja удаляет пуджу из индекса, отсутствие документа не ошибка
func (c *ElasticsearchClient) DeletePuja(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{
		Index:      c.config.Index,
		DocumentID: strconv.FormatInt(id, 10),
		Refresh:    "wait_for",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("failed to delete puja: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete error: %s", res.String())
	}

	return nil
}

// HealthCheck проверяет состояние Elasticsearch
func (c *ElasticsearchClient) HealthCheck(ctx context.Context) error {
	req := esapi.ClusterHealthRequest{
		WaitForStatus: "yellow",
		Timeout:       10 * time.Second,
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("health check error: %s", res.String())
	}

	return nil
}
