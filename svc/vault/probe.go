package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qiqiqi-tech/backoffice/pkg/logger"
)

type ProbeResult struct {
	Status   string    `json:"status"`
	TestedAt time.Time `json:"tested_at"`
}

// TestOpenAI checks the stored OpenAI key against GET /v1/models and records
// the time of a successful check.
func (s *Service) TestOpenAI(ctx context.Context, tenantID string) (*ProbeResult, error) {
	key, err := s.Reveal(ctx, tenantID, FieldOpenAIAPIKey)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.probeTimeout)
	defer cancel()

	url := strings.TrimRight(s.openAIBaseURL, "/") + "/v1/models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Join(ErrProviderFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WarnContext(ctx, "openai probe failed",
			logger.Component("vault"), logger.TenantID(tenantID), logger.Error(err))
		return nil, errors.Join(ErrProviderFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		s.logger.WarnContext(ctx, "openai probe rejected",
			logger.Component("vault"), logger.TenantID(tenantID), logger.Event("probe_rejected"))
		return nil, fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	testedAt := s.now()
	if _, err := s.mutate(context.WithoutCancel(ctx), tenantID, func(r *Record) {
		r.LastTestedAt = &testedAt
	}); err != nil {
		return nil, err
	}

	return &ProbeResult{Status: "connected", TestedAt: testedAt}, nil
}
