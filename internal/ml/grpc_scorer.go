package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// PredictProbaMethod is the full gRPC method name of the scoring call
const PredictProbaMethod = "/horsemen.v1.Scorer/PredictProba"

// GRPCScorerConfig holds configuration for the gRPC model server client
type GRPCScorerConfig struct {
	Address string
	UseTLS  bool
	Version string
	Timeout time.Duration
}

// GRPCScorer scores feature rows over a unary gRPC call carrying
// google.protobuf.Struct messages
type GRPCScorer struct {
	conn    *grpc.ClientConn
	version string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewGRPCScorer creates a client for the model server. The connection is
// established lazily on the first call.
func NewGRPCScorer(cfg GRPCScorerConfig, logger *logrus.Logger, opts ...grpc.DialOption) (*GRPCScorer, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	creds := grpc.WithTransportCredentials(insecure.NewCredentials())
	if cfg.UseTLS {
		creds = grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))
	}

	dialOpts := []grpc.DialOption{
		creds,
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff: backoff.Config{
				BaseDelay:  1 * time.Second,
				Multiplier: 1.6,
				Jitter:     0.2,
				MaxDelay:   5 * time.Second,
			},
			MinConnectTimeout: 10 * time.Second,
		}),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	logger.WithField("address", cfg.Address).Info("Created gRPC scorer client")
	return &GRPCScorer{
		conn:    conn,
		version: cfg.Version,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// PredictProba sends one batch of rows to the model server
func (s *GRPCScorer) PredictProba(ctx context.Context, features [][]float64) ([]float64, error) {
	start := time.Now()
	defer func() {
		ScorerLatency.WithLabelValues(KindGRPC).Observe(time.Since(start).Seconds())
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req := &structpb.Struct{Fields: map[string]*structpb.Value{
		"features": encodeMatrix(features),
	}}
	resp := &structpb.Struct{}

	if err := s.conn.Invoke(ctx, PredictProbaMethod, req, resp); err != nil {
		code := status.Code(err)
		ScorerErrorsTotal.WithLabelValues(KindGRPC, code.String()).Inc()
		if code == codes.InvalidArgument {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPrediction, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}

	probs, err := decodeVector(resp.GetFields()["probabilities"])
	if err != nil {
		ScorerErrorsTotal.WithLabelValues(KindGRPC, "decode").Inc()
		return nil, err
	}
	if err := validateProbabilities(probs, len(features)); err != nil {
		ScorerErrorsTotal.WithLabelValues(KindGRPC, "invalid").Inc()
		return nil, err
	}

	ScorerPredictionsTotal.WithLabelValues(KindGRPC, "false").Add(float64(len(features)))
	return probs, nil
}

// Version returns the configured model version
func (s *GRPCScorer) Version() string {
	return s.version
}

// Close closes the underlying connection
func (s *GRPCScorer) Close() error {
	return s.conn.Close()
}

func encodeMatrix(features [][]float64) *structpb.Value {
	rows := make([]*structpb.Value, len(features))
	for i, row := range features {
		rows[i] = encodeVector(row)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: rows})
}

func encodeVector(row []float64) *structpb.Value {
	values := make([]*structpb.Value, len(row))
	for j, x := range row {
		values[j] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func decodeMatrix(v *structpb.Value) ([][]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: features is not a list", ErrInvalidResponse)
	}
	rows := make([][]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		row, err := decodeVector(item)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

func decodeVector(v *structpb.Value) ([]float64, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected a list of numbers", ErrInvalidResponse)
	}
	out := make([]float64, len(list.GetValues()))
	for i, item := range list.GetValues() {
		n, ok := item.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrInvalidResponse, i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}
