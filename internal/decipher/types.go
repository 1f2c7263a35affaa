package decipher

import (
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/hillclimb"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/restart"
)

// TrainRequest carries a raw training corpus.
type TrainRequest struct {
	Corpus string `json:"corpus"`
}

type TrainResponse struct {
	ModelID string `json:"model_id"`
	Pairs   int64  `json:"pairs"`
	Cached  bool   `json:"cached"`
}

// DecryptRequest asks for a key search over Ciphertext. Zero values fall
// back to the service configuration; Seed is a pointer because 0 is a valid
// seed.
type DecryptRequest struct {
	ModelID    string `json:"model_id"`
	Ciphertext string `json:"ciphertext"`
	StallLimit int    `json:"stall_limit,omitempty"`
	Restarts   int    `json:"restarts,omitempty"`
	Seed       *int64 `json:"seed,omitempty"`
	InitialKey string `json:"initial_key,omitempty"`
}

// DecryptResponse is the best key found and what the search did to find it.
type DecryptResponse struct {
	RunID           string            `json:"run_id"`
	ModelID         string            `json:"model_id"`
	Plaintext       string            `json:"plaintext"`
	Key             string            `json:"key"`
	Distance        float64           `json:"distance"`
	InitialDistance float64           `json:"initial_distance"`
	Iterations      int64             `json:"iterations"`
	Accepted        int64             `json:"accepted"`
	Reason          hillclimb.Reason  `json:"reason"`
	BestRestart     int               `json:"best_restart"`
	Restarts        []restart.Summary `json:"restarts"`
	DurationMs      int64             `json:"duration_ms"`
}
