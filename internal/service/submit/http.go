package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

const defaultTimeout = 20 * time.Second

// maxResponseBody ограничивает размер читаемого ответа backend'а.
const maxResponseBody = 1 << 20

// HTTPConfig задаёт параметры HTTP submitter'а.
type HTTPConfig struct {
	// URL — endpoint backend'а, принимающий submission'ы чеков.
	URL string
	// Client — опциональный HTTP-клиент; nil даёт клиент с таймаутом по умолчанию.
	Client *http.Client
	// Logger для событий submitter'а.
	Logger *log.Entry
}

// HTTPSubmitter отправляет чеки покупок на backend по HTTP.
// Его метод Submit подходит как SubmitFunc оркестратора и воркера reconcile.
type HTTPSubmitter struct {
	url        string
	httpClient *http.Client
	logger     *log.Entry
}

// NewHTTPSubmitter создаёт submitter для заданного endpoint'а.
func NewHTTPSubmitter(cfg HTTPConfig) (*HTTPSubmitter, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("submit url is required")
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http-submitter")
	}

	return &HTTPSubmitter{
		url:        cfg.URL,
		httpClient: client,
		logger:     logger,
	}, nil
}

// submitRequest — тело запроса к backend'у.
type submitRequest struct {
	Product  *domain.Product `json:"product"`
	Receipt  *domain.Receipt `json:"receipt"`
	Restored bool            `json:"restored"`
}

// Submit отправляет чек и разбирает ответ backend'а в Outcome.
// Поля ответа сверх rc и error передаются в Outcome.Passthrough.
func (s *HTTPSubmitter) Submit(ctx context.Context, sub domain.Submission) (domain.Outcome, error) {
	body, err := json.Marshal(submitRequest{
		Product:  sub.Product,
		Receipt:  sub.Receipt,
		Restored: sub.Restored,
	})
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("submission request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to read submission response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.WithField("status", resp.StatusCode).Warn("backend rejected submission")
		return domain.Outcome{}, fmt.Errorf("submission rejected: status %d", resp.StatusCode)
	}

	return parseOutcome(raw)
}

// parseOutcome разбирает JSON-ответ backend'а.
// rc обязателен; остальные поля уходят в Passthrough как есть.
func parseOutcome(raw []byte) (domain.Outcome, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to decode submission response: %w", err)
	}

	outcome := domain.Outcome{}

	if rc, ok := fields["rc"].(string); ok {
		outcome.Code = domain.OutcomeCode(rc)
	}
	if outcome.Code == "" {
		return domain.Outcome{}, errors.New("submission response has no rc field")
	}
	delete(fields, "rc")

	if msg, ok := fields["error"].(string); ok && msg != "" {
		outcome.Err = errors.New(msg)
		delete(fields, "error")
	}

	if len(fields) > 0 {
		outcome.Passthrough = fields
	}

	if !outcome.OK() && outcome.Err == nil {
		// Без текста ошибки возвращающийся код сам служит диагнозом.
		outcome.Err = fmt.Errorf("submission failed with code %s", outcome.Code)
	}

	return outcome, nil
}

var _ domain.SubmitFunc = (*HTTPSubmitter)(nil).Submit
