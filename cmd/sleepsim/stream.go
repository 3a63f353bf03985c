package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blaisecz/smart-sleep/internal/broker"
	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/internal/logger"
	"github.com/blaisecz/smart-sleep/internal/sensor"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func streamCmd() *cobra.Command {
	var (
		server   string
		mqttURL  string
		prefix   string
		user     string
		interval time.Duration
		seedVal  uint64
		start    bool
		wakeIn   time.Duration
		window   time.Duration
		stopIn   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Feed live simulated readings to a running server over HTTP or MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(user)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			log, err := logger.New("info", "console", "")
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			api := newAPIClient(server)

			var sink sensor.Sink
			if mqttURL != "" {
				client, err := broker.Connect(broker.Config{URL: mqttURL, ClientID: "sleepsim-" + userID.String()[:8]}, log)
				if err != nil {
					return err
				}
				defer client.Close()
				sink = &mqttSink{pub: client, prefix: strings.TrimSuffix(prefix, "/")}
			} else {
				sink = api
			}

			ctx := cmd.Context()
			if start {
				req := domain.StartSessionRequest{}
				if wakeIn > 0 {
					target := time.Now().Add(wakeIn).UTC()
					req.TargetWakeAt = &target
					req.PreWakeMinutes = int(window / time.Minute)
				}
				session, err := api.start(ctx, userID, req)
				if err != nil {
					return err
				}
				log.Info("tracking started", zap.String("session_id", session.ID.String()))
			}

			runCtx := ctx
			if stopIn > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, stopIn)
				defer cancel()
			}

			sim := sensor.NewSimulator(seedVal, interval)
			log.Info("streaming readings", zap.String("user_id", userID.String()), zap.Duration("interval", interval))
			err = sim.Run(runCtx, userID, sink, log)
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				return err
			}

			if start && ctx.Err() == nil {
				detail, err := api.stop(ctx, userID)
				if err != nil {
					return err
				}
				log.Info("tracking stopped",
					zap.String("session_id", detail.ID.String()),
					zap.Float64("total_sleep_minutes", detail.Metrics.TotalSleepMinutes),
					zap.Float64("quality_score", detail.Metrics.QualityScore),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "API base URL")
	cmd.Flags().StringVar(&mqttURL, "mqtt", "", "publish readings to this MQTT broker instead of the HTTP API")
	cmd.Flags().StringVar(&prefix, "topic-prefix", "sleep", "MQTT topic prefix")
	cmd.Flags().StringVar(&user, "user", "", "user ID (required)")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "sensor sampling interval")
	cmd.Flags().Uint64Var(&seedVal, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&start, "start", false, "start tracking before streaming and stop it afterwards")
	cmd.Flags().DurationVar(&wakeIn, "wake-in", 0, "with --start, set the target wake time this far from now")
	cmd.Flags().DurationVar(&window, "window", domain.DefaultPreWakeWindow, "with --wake-in, the smart alarm window")
	cmd.Flags().DurationVar(&stopIn, "duration", 0, "stop streaming after this long (0 streams until interrupted)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// apiClient talks to the session endpoints.
type apiClient struct {
	client *resty.Client
}

func newAPIClient(baseURL string) *apiClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/v1").
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)
	return &apiClient{client: client}
}

func (c *apiClient) start(ctx context.Context, userID uuid.UUID, req domain.StartSessionRequest) (*domain.SessionResponse, error) {
	var out domain.SessionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("userId", userID.String()).
		SetBody(req).
		SetResult(&out).
		Post("/users/{userId}/sessions")
	if err := checkResponse("start tracking", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) stop(ctx context.Context, userID uuid.UUID) (*domain.SessionDetailResponse, error) {
	var out domain.SessionDetailResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("userId", userID.String()).
		SetResult(&out).
		Post("/users/{userId}/sessions/active/stop")
	if err := checkResponse("stop tracking", resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Record implements sensor.Sink over the samples endpoint.
func (c *apiClient) Record(ctx context.Context, userID uuid.UUID, readings ...domain.Reading) error {
	req := domain.RecordSamplesRequest{Samples: make([]domain.SampleInput, len(readings))}
	for i, r := range readings {
		ts := r.Timestamp
		req.Samples[i] = domain.SampleInput{Kind: r.Kind, Timestamp: &ts, Value: r.Value}
	}

	var out domain.RecordSamplesResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("userId", userID.String()).
		SetBody(req).
		SetResult(&out).
		Post("/users/{userId}/sessions/active/samples")
	if err := checkResponse("upload readings", resp, err); err != nil {
		return err
	}
	if out.Dropped > 0 {
		return fmt.Errorf("%d readings dropped: no active session", out.Dropped)
	}
	return nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s: %s", op, resp.Status(), strings.TrimSpace(resp.String()))
	}
	return nil
}

// mqttSink publishes readings the way a bedside device would.
type mqttSink struct {
	pub    sensor.Publisher
	prefix string
}

func (s *mqttSink) Record(_ context.Context, userID uuid.UUID, readings ...domain.Reading) error {
	for _, r := range readings {
		ts := r.Timestamp
		payload, err := json.Marshal(sensor.Payload{Timestamp: &ts, Value: r.Value})
		if err != nil {
			return err
		}
		if err := s.pub.Publish(sensor.Topic(s.prefix, userID, r.Kind), 0, false, payload); err != nil {
			return err
		}
	}
	return nil
}
