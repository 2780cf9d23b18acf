package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Pipeline.ClusterCount != 5 {
		t.Errorf("ClusterCount = %d, want 5", cfg.Pipeline.ClusterCount)
	}
	if cfg.Pipeline.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Pipeline.Seed)
	}
	if cfg.Pipeline.ElbowMinK != 2 || cfg.Pipeline.ElbowMaxK != 9 {
		t.Errorf("elbow range = %d..%d, want 2..9", cfg.Pipeline.ElbowMinK, cfg.Pipeline.ElbowMaxK)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("Address() = %q", cfg.Address())
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("RFM_INPUT", "/tmp/tx.csv")
	t.Setenv("RFM_CLUSTERS", "4")
	t.Setenv("RFM_SEED", "7")
	t.Setenv("RFM_SKIP_CLUSTERING", "true")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "TEXT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Pipeline.InputPath != "/tmp/tx.csv" {
		t.Errorf("InputPath = %q", cfg.Pipeline.InputPath)
	}
	if cfg.Pipeline.ClusterCount != 4 || cfg.Pipeline.Seed != 7 {
		t.Errorf("cluster settings = %d/%d, want 4/7", cfg.Pipeline.ClusterCount, cfg.Pipeline.Seed)
	}
	if !cfg.Pipeline.SkipClustering {
		t.Error("SkipClustering = false, want true")
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Logger.Format)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad port", map[string]string{"SERVER_PORT": "70000"}, "Port"},
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}, "Level"},
		{"zero clusters", map[string]string{"RFM_CLUSTERS": "0"}, "ClusterCount"},
		{"inverted elbow range", map[string]string{"RFM_ELBOW_MIN_K": "6", "RFM_ELBOW_MAX_K": "3"}, "ElbowMaxK"},
		{"zero burst", map[string]string{"SECURITY_RATE_LIMIT_BURST": "-1"}, "RateLimitBurst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_RequiresSource(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg.Pipeline.InputPath = ""
	cfg.Pipeline.SourceDSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when no transaction source is configured")
	}

	cfg.Pipeline.SourceDSN = "mysql://u:p@localhost:3306/shop"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
