package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/voucher_desk/config"
	"github.com/mmdatafocus/voucher_desk/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// TenantProbePath answers 404 when the signed-in user has no company yet.
const TenantProbePath = "/companies/current"

// Client is the single HTTP client every backend call goes through.
type Client struct {
	root     string
	http     *http.Client
	session  *Session
	limiter  *rate.Limiter
	authWait time.Duration
	tracer   trace.Tracer
	logger   *logrus.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithRateLimit overrides the settings' request rate; r <= 0 disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

func New(settings config.Settings, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession()
	}
	c := &Client{
		root:     settings.APIRoot(),
		http:     &http.Client{Timeout: settings.APITimeout},
		session:  session,
		authWait: settings.AuthWaitTimeout,
		tracer:   otel.Tracer("voucher_desk/gateway"),
		logger:   config.GetLogger(),
	}
	if settings.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(settings.RatePerSecond), max(settings.RateBurst, 1))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

// Do sends one request and decodes a 2xx JSON body into out (nil discards it;
// *json.RawMessage keeps it verbatim). Non-2xx responses come back as *APIError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("http.path", path))

	err := c.do(ctx, span, method, path, query, body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, span trace.Span, method, path string, query url.Values, body any, out any) error {
	if !utils.IsPublicEndpointContext(ctx) && !c.session.IsReady() {
		ready, err := c.session.WaitReady(ctx, c.authWait)
		if err != nil {
			return err
		}
		if !ready {
			c.logger.WithFields(requestFields(ctx, path)).Warn("auth wait timed out, proceeding without ready session")
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endpoint := c.root + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = uuid.NewString()
	}
	req.Header.Set("X-Correlation-Id", correlationId)
	span.SetAttributes(attribute.String("correlation_id", correlationId))

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.statusError(ctx, method, path, resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], respBody...)
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// requestFields identifies the caller in gateway logs.
func requestFields(ctx context.Context, path string) logrus.Fields {
	fields := logrus.Fields{"path": path}
	if v, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		fields["correlationId"] = v
	}
	if v, ok := utils.GetTenantIdFromContext(ctx); ok {
		fields["tenantId"] = v
	}
	if v, ok := utils.GetUsernameFromContext(ctx); ok {
		fields["username"] = v
	}
	if v, ok := utils.GetUserRoleFromContext(ctx); ok {
		fields["role"] = v
	}
	return fields
}

func (c *Client) statusError(ctx context.Context, method, path string, status int, body []byte) error {
	apiErr := &APIError{Status: status, Method: method, Path: path}
	if json.Valid(body) {
		apiErr.Body = json.RawMessage(body)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr.Message = sessionExpiredMessage(body)
		apiErr.Err = ErrSessionExpired
		fields := requestFields(ctx, path)
		fields["status"] = status
		c.logger.WithFields(fields).Warn("auth error, clearing session")
		c.session.expire(apiErr.Message)
		return apiErr
	case status == http.StatusNotFound && strings.Contains(path, TenantProbePath):
		apiErr.Message = MsgTenantSetup
		apiErr.Err = ErrTenantSetupRequired
		return apiErr
	}
	apiErr.Message = ErrorMessage(body)
	if apiErr.Message == "" {
		apiErr.Message = MsgUnexpected
	}
	return apiErr
}
