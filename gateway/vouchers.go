package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/models"
)

// VoucherService is the voucher CRUD surface the page orchestrator drives.
type VoucherService struct {
	client     *Client
	pageSize   int
	maxRecords int
}

func NewVoucherService(client *Client, settings config.Settings) *VoucherService {
	return &VoucherService{
		client:     client,
		pageSize:   max(settings.ListPageSize, 1),
		maxRecords: max(settings.ListMaxRecords, 1),
	}
}

// List pages through the list endpoint with skip/limit until a short page or the record cap.
func (s *VoucherService) List(ctx context.Context, cfg models.VoucherConfig) ([]models.VoucherListEntry, error) {
	entries := make([]models.VoucherListEntry, 0, s.pageSize)
	for skip := 0; skip < s.maxRecords; skip += s.pageSize {
		limit := min(s.pageSize, s.maxRecords-skip)
		query := url.Values{}
		query.Set("skip", strconv.Itoa(skip))
		query.Set("limit", strconv.Itoa(limit))

		var page []models.VoucherListEntry
		if err := s.client.Do(ctx, http.MethodGet, cfg.ListEndpoint, query, nil, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < limit {
			break
		}
	}
	return entries, nil
}

func (s *VoucherService) Get(ctx context.Context, cfg models.VoucherConfig, id int) (*models.VoucherDraft, error) {
	var raw json.RawMessage
	if err := s.client.Do(ctx, http.MethodGet, detailPath(cfg, id), nil, nil, &raw); err != nil {
		return nil, err
	}
	return models.DecodeDraft(cfg.Kind, raw)
}

func (s *VoucherService) Create(ctx context.Context, cfg models.VoucherConfig, draft *models.VoucherDraft) (*models.VoucherDraft, error) {
	var raw json.RawMessage
	if err := s.client.Do(ctx, http.MethodPost, cfg.Endpoint, nil, draft, &raw); err != nil {
		return nil, err
	}
	return models.DecodeDraft(cfg.Kind, raw)
}

func (s *VoucherService) Update(ctx context.Context, cfg models.VoucherConfig, id int, draft *models.VoucherDraft) (*models.VoucherDraft, error) {
	var raw json.RawMessage
	if err := s.client.Do(ctx, http.MethodPut, detailPath(cfg, id), nil, draft, &raw); err != nil {
		return nil, err
	}
	return models.DecodeDraft(cfg.Kind, raw)
}

func (s *VoucherService) Delete(ctx context.Context, cfg models.VoucherConfig, id int) error {
	return s.client.Do(ctx, http.MethodDelete, detailPath(cfg, id), nil, nil, nil)
}

// NextNumber returns the server-assigned next voucher number; the backend sends a string or a number.
func (s *VoucherService) NextNumber(ctx context.Context, cfg models.VoucherConfig) (string, error) {
	var raw json.RawMessage
	if err := s.client.Do(ctx, http.MethodGet, cfg.NextNumberEndpoint, nil, nil, &raw); err != nil {
		return "", err
	}
	return decodeNextNumber(raw)
}

func decodeNextNumber(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), nil
	}
	var obj struct {
		VoucherNumber any `json:"voucher_number"`
		NextNumber    any `json:"next_number"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, v := range []any{obj.VoucherNumber, obj.NextNumber} {
			if v != nil {
				return strings.TrimSpace(fmt.Sprint(v)), nil
			}
		}
	}
	return "", fmt.Errorf("unexpected next number payload: %s", string(raw))
}

func detailPath(cfg models.VoucherConfig, id int) string {
	return cfg.Endpoint + "/" + strconv.Itoa(id)
}
