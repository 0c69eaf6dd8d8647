package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds process configuration, loaded from FACTIOND_* environment
// variables. Defaults are suitable for local development only.
type Config struct {
	Port      uint   `envconfig:"FACTIOND_PORT" default:"8080"`
	DBPath    string `envconfig:"FACTIOND_DB_PATH" default:"factiond.db"`
	JWTSecret string `envconfig:"FACTIOND_JWT_SECRET" default:"factiond-dev-secret-change-in-production"`

	// Credentials the gateway uses to obtain a JWT. The password is
	// bcrypt-checked; store the hash, not the plaintext.
	GatewayUser         string `envconfig:"FACTIOND_GATEWAY_USER" default:"gateway"`
	GatewayPasswordHash string `envconfig:"FACTIOND_GATEWAY_PASSWORD_HASH"`

	// Guild-global rank role ids mirrored onto members alongside the
	// per-faction role.
	OwnerRoleID    string `envconfig:"FACTIOND_OWNER_ROLE_ID"`
	DirectorRoleID string `envconfig:"FACTIOND_DIRECTOR_ROLE_ID"`
	HicommRoleID   string `envconfig:"FACTIOND_HICOMM_ROLE_ID"`
	MidcommRoleID  string `envconfig:"FACTIOND_MIDCOMM_ROLE_ID"`
	MemberRoleID   string `envconfig:"FACTIOND_MEMBER_ROLE_ID"`

	// LogChannelID receives the audit trail; AdminChannelID receives
	// creation requests awaiting approval. Both optional.
	LogChannelID   string `envconfig:"FACTIOND_LOG_CHANNEL_ID"`
	AdminChannelID string `envconfig:"FACTIOND_ADMIN_CHANNEL_ID"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("factiond", &cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}
	return &cfg, nil
}

// RankRoleIDs returns the five global rank role ids indexed by rank level.
func (c *Config) RankRoleIDs() map[int]string {
	return map[int]string{
		0: c.MemberRoleID,
		1: c.MidcommRoleID,
		2: c.HicommRoleID,
		3: c.DirectorRoleID,
		4: c.OwnerRoleID,
	}
}
