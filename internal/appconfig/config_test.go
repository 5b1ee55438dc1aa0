package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
project: sample
environments:
  dev:
    suffix: dev
    region: us-west-2
    deploy_role_arn: arn:aws:iam::123456789012:role/deploy
    state_bucket: sample-tfstate-dev
    tags:
      Owner: platform
    stacks:
      - payment
      - upload
  prod:
    suffix: prod
    region: us-east-1
    deploy_role_arn: arn:aws:iam::210987654321:role/deploy
    state_bucket: sample-tfstate-prod
    alert_email: oncall@example.com
    hub_vpc_id: vpc-12345
    stacks:
      - payment
      - audit
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestAccountIDFromRoleArn tests extraction of account ID from various ARNs.
func TestAccountIDFromRoleArn(t *testing.T) {
	tests := []struct {
		arn      string
		expected string
	}{
		{"arn:aws:iam::123456789012:role/MyRole", "123456789012"},
		{"arn:aws:iam::role/MyRole", ""},
		{"", ""},
		{"arn:aws:iam:123456789012", ""},
	}
	for _, tt := range tests {
		got := AccountIDFromRoleArn(tt.arn)
		if got != tt.expected {
			t.Errorf("AccountIDFromRoleArn(%q) = %q, want %q", tt.arn, got, tt.expected)
		}
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "sample", cfg.Project)
	assert.Len(t, cfg.Environments, 2)
	assert.Equal(t, "dev", cfg.Environments["dev"].Suffix)
	assert.Equal(t, []string{"payment", "audit"}, cfg.Environments["prod"].Stacks)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYaml(t *testing.T) {
	_, err := Load(writeConfig(t, "environments: [not: a: map"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	known := []string{"payment", "upload", "audit"}

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.NoError(t, Validate(cfg, known))

	tests := []struct {
		name    string
		mutate  func(*YAMLConfig)
		wantErr string
	}{
		{
			name:    "missing project",
			mutate:  func(c *YAMLConfig) { c.Project = "" },
			wantErr: "project name",
		},
		{
			name: "missing suffix",
			mutate: func(c *YAMLConfig) {
				e := c.Environments["dev"]
				e.Suffix = ""
				c.Environments["dev"] = e
			},
			wantErr: "missing a suffix",
		},
		{
			name: "missing region",
			mutate: func(c *YAMLConfig) {
				e := c.Environments["prod"]
				e.Region = ""
				c.Environments["prod"] = e
			},
			wantErr: "missing a region",
		},
		{
			name: "duplicate suffix",
			mutate: func(c *YAMLConfig) {
				e := c.Environments["prod"]
				e.Suffix = "dev"
				c.Environments["prod"] = e
			},
			wantErr: "share suffix",
		},
		{
			name: "malformed role arn",
			mutate: func(c *YAMLConfig) {
				e := c.Environments["dev"]
				e.DeployRoleArn = "not-an-arn"
				c.Environments["dev"] = e
			},
			wantErr: "malformed deploy_role_arn",
		},
		{
			name: "unknown stack",
			mutate: func(c *YAMLConfig) {
				e := c.Environments["dev"]
				e.Stacks = append(e.Stacks, "mystery")
				c.Environments["dev"] = e
			},
			wantErr: "unknown stack",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleConfig))
			require.NoError(t, err)
			tt.mutate(&cfg)
			err = Validate(cfg, known)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSelect(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	env, err := Select(cfg, "prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", env.Name)
	assert.Equal(t, "prod", env.Suffix)
	assert.Equal(t, "us-east-1", env.Region)
	assert.Equal(t, "210987654321", env.AccountID)
	assert.Equal(t, "oncall@example.com", env.AlertEmail)
	assert.Equal(t, "vpc-12345", env.HubVpcID)

	// Standard tags are injected alongside the declared ones.
	assert.Equal(t, "sample", env.Tags["Project"])
	assert.Equal(t, "prod", env.Tags["Environment"])
	assert.Equal(t, "cdktf", env.Tags["ManagedBy"])

	// Declared tags survive the merge.
	dev, err := Select(cfg, "dev")
	require.NoError(t, err)
	assert.Equal(t, "platform", dev.Tags["Owner"])
}

func TestSelectUnknownEnvironment(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	_, err = Select(cfg, "qa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown environment "qa"`)
	assert.Contains(t, err.Error(), "dev")
	assert.Contains(t, err.Error(), "prod")
}
