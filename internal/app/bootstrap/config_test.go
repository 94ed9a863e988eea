package bootstrap

import (
	"reflect"
	"testing"
	"time"

	"github.com/dalemusser/waffle/config"
)

func TestValidateConfig(t *testing.T) {
	valid := AppConfig{
		MongoURI:  "mongodb://localhost:27017",
		JWTSecret: "0123456789abcdef0123456789abcdef",
		JWTExpiry: 24 * time.Hour,
	}

	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid dev", "dev", func(*AppConfig) {}, false},
		{"valid prod", "prod", func(*AppConfig) {}, false},
		{"missing secret", "dev", func(c *AppConfig) { c.JWTSecret = "" }, true},
		{"short secret in dev", "dev", func(c *AppConfig) { c.JWTSecret = "short" }, false},
		{"short secret in prod", "prod", func(c *AppConfig) { c.JWTSecret = "short" }, true},
		{"zero expiry", "dev", func(c *AppConfig) { c.JWTExpiry = 0 }, true},
		{"bcrypt cost too high", "dev", func(c *AppConfig) { c.BcryptCost = 99 }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tc.env}, cfg, testLogger())
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , ,https://b.example ", []string{"https://a.example", "https://b.example"}},
	}
	for _, tc := range tests {
		if got := splitOrigins(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitOrigins(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
