package core

import (
	"context"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/metrics"
)

type Metrics struct {
	apiResponseTime *prometheus.HistogramVec
	apiErrorCounter *prometheus.CounterVec
	aiRequestTime   *prometheus.HistogramVec
	aiError         *prometheus.CounterVec
	aiTokens        *prometheus.CounterVec
	audioPollTicks  *prometheus.CounterVec
	workspaces      *prometheus.GaugeVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime: metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter: metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		aiRequestTime:   metrics.NewHistogramVec("ai_request_time", []string{"target"}),
		aiError:         metrics.NewCounterVec("ai_error", []string{"type"}),
		aiTokens:        metrics.NewCounterVec("ai_tokens", []string{"kind"}),
		audioPollTicks:  metrics.NewCounterVec("audio_poll_ticks", []string{"status"}),
		workspaces:      metrics.NewGaugeVec("workspaces", nil),
	}

	return m
}

func (m *Metrics) AIRequestTimer(target string) *prometheus.Timer {
	return prometheus.NewTimer(m.aiRequestTime.WithLabelValues(target))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) AIErrorInc(types string) {
	m.aiError.WithLabelValues(types).Inc()
}

func (m *Metrics) AIUsage(usage ai.Usage) {
	m.aiTokens.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	m.aiTokens.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}

func (m *Metrics) AudioPollInc(status string) {
	m.audioPollTicks.WithLabelValues(status).Inc()
}

func (m *Metrics) SetWorkspaces(n int) {
	m.workspaces.WithLabelValues().Set(float64(n))
}

// MeasuredChatter records latency, token usage and failures of every chat call.
type MeasuredChatter struct {
	next    ai.Chatter
	metrics *Metrics
}

func NewMeasuredChatter(next ai.Chatter, m *Metrics) *MeasuredChatter {
	return &MeasuredChatter{next: next, metrics: m}
}

func (c *MeasuredChatter) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatResult, error) {
	timer := c.metrics.AIRequestTimer("chat")
	defer timer.ObserveDuration()

	res, err := c.next.Chat(ctx, req)
	if err != nil {
		switch {
		case ai.IsOverloaded(err):
			c.metrics.AIErrorInc("overloaded")
		case errors.Is(err, ai.ErrEmptyResponse):
			c.metrics.AIErrorInc("empty")
		default:
			c.metrics.AIErrorInc("request")
		}
		return res, err
	}
	c.metrics.AIUsage(res.Usage)
	return res, nil
}
