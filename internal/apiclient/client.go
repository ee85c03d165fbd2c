// Пакет apiclient — HTTP-клиент REST API реестра сотрудников.
// Защищённые запросы передают Authorization: Bearer <token>; без токена
// запрос не отправляется. Ошибки классифицируются по HTTP-статусу (Kind).
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики клиента API.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ra_api_requests_total",
		Help: "Общее количество запросов к REST API по операциям и результату.",
	}, []string{"op", "outcome"})
	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ra_api_request_duration_seconds",
		Help:    "Длительность запросов к REST API.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
)

// maxErrorBody — сколько байт тела ошибки сохранять в Error.Body.
const maxErrorBody = 512

// Client — клиент REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New создаёт клиент.
// baseURL — базовый URL API (например, http://localhost:8081/api).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — системный пул).
// timeout — таймаут HTTP-запросов (RA_API_TIMEOUT).
func New(baseURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата API: %w", err)
		}
		httpClient.Transport = &http.Transport{TLSClientConfig: tlsConfig}
		logger.Info("CA-сертификат API добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With(slog.String("component", "api_client")),
	}, nil
}

// BaseURL возвращает базовый URL API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request — параметры одного вызова API.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	public bool // запрос без авторизации (/auth/*)
	body   any
	out    any
}

// do выполняет запрос, декодирует ответ в r.out и классифицирует ошибки.
func (c *Client) do(ctx context.Context, r request) error {
	if !r.public && r.token == "" {
		return fmt.Errorf("%s: %w", r.op, ErrNoToken)
	}

	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL += "?" + r.query.Encode()
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("сериализация запроса %s: %w", r.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
	if err != nil {
		return fmt.Errorf("создание запроса %s: %w", r.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !r.public {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	apiRequestDuration.WithLabelValues(r.op).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			apiRequestsTotal.WithLabelValues(r.op, "cancelled").Inc()
			return fmt.Errorf("%s: %w", r.op, ctx.Err())
		}
		apiRequestsTotal.WithLabelValues(r.op, string(KindNetworkUnreachable)).Inc()
		c.logger.Warn("API недоступен",
			slog.String("op", r.op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return &Error{Kind: KindNetworkUnreachable, Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := kindForStatus(resp.StatusCode)
		apiRequestsTotal.WithLabelValues(r.op, string(kind)).Inc()
		c.logger.Debug("API вернул ошибку",
			slog.String("op", r.op),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
		)
		return &Error{
			Kind:   kind,
			Status: resp.StatusCode,
			Op:     r.op,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	apiRequestsTotal.WithLabelValues(r.op, "ok").Inc()

	if r.out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		if errors.Is(err, io.EOF) {
			// Пустое тело успешного ответа допустимо
			return nil
		}
		return fmt.Errorf("декодирование ответа %s: %w", r.op, err)
	}
	return nil
}

// pathParam кодирует параметр пути (simple style).
func pathParam(name string, value any) (string, error) {
	v, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
	if err != nil {
		return "", fmt.Errorf("кодирование параметра %s: %w", name, err)
	}
	return v, nil
}

// addQueryParam добавляет параметр запроса (form style, explode).
func addQueryParam(values url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("кодирование параметра %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("разбор параметра %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			values.Add(k, v)
		}
	}
	return nil
}

// buildTLSConfig создаёт TLS-конфигурацию с дополнительным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("файл %s не содержит PEM-сертификатов", caCertPath)
	}

	return &tls.Config{RootCAs: caCertPool}, nil
}
