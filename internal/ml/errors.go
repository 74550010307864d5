// Package ml provides the classifier behind the AI index and its transports.
package ml

import "errors"

var (
	// ErrScorerUnavailable indicates the model server is unreachable
	ErrScorerUnavailable = errors.New("scorer unavailable")

	// ErrInvalidPrediction indicates the probabilities returned are unusable
	ErrInvalidPrediction = errors.New("invalid prediction response")

	// ErrInvalidModel indicates a model artifact that cannot be scored with
	ErrInvalidModel = errors.New("invalid model artifact")

	// ErrConnectionFailed indicates gRPC connection failed
	ErrConnectionFailed = errors.New("grpc connection failed")

	// ErrInvalidResponse indicates an undecodable response from the model server
	ErrInvalidResponse = errors.New("invalid response from model server")
)
