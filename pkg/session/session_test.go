package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/blackcoderx/contractfuzz/pkg/contract"
	"github.com/blackcoderx/contractfuzz/pkg/transport"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	v := viper.New()
	cfg := LoadConfig(v)

	if cfg.Generation.IntensityLevel != 1.0 {
		t.Errorf("expected default intensity 1.0, got %v", cfg.Generation.IntensityLevel)
	}
	if cfg.Validation.ConfidenceThreshold != 0.5 {
		t.Errorf("expected default confidence threshold 0.5, got %v", cfg.Validation.ConfidenceThreshold)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("expected default max concurrent 4, got %v", cfg.MaxConcurrent)
	}
}

func TestRunnerProducesSessionAndReport(t *testing.T) {
	ep := contract.Endpoint{
		ID:     "get-clean",
		Path:   "/clean",
		Method: "GET",
		Parameters: []contract.Parameter{
			{Name: "q", Location: contract.LocationQuery, TypeTag: contract.TypeString},
		},
		ExpectedStatuses: []uint16{200},
	}
	c := contract.Contract{Endpoints: []contract.Endpoint{ep}}
	mock := transport.NewMock().Respond(transport.Rule{Status: 200, Body: []byte(`{"ok":true}`)})

	cfg := LoadConfig(viper.New())
	cfg.Generation.IncludeMutations = false

	r := NewRunner(c, cfg, mock, nil, nil)
	sess := r.Run(context.Background())

	if len(sess.Results) != 1 {
		t.Fatalf("expected 1 endpoint result, got %d", len(sess.Results))
	}

	dir := t.TempDir()
	path, err := WriteJSONReport(dir, cfg.BaseURL, sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected report in %s, got %s", dir, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected report file to exist: %v", err)
	}
}
