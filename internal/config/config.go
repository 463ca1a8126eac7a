// Package config holds the cluster setup configuration.
//
// Settings come from three layers, later layers winning: built-in defaults,
// an optional cluster.yaml file, and environment variables. The resulting
// struct is threaded explicitly through the pipeline so no component relies
// on ambient process state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "cluster.yaml"

// Environment variables layered on top of the file.
const (
	// EnvVaultPasswordFile names an Ansible vault password file. When set,
	// every playbook invocation gets a --vault-password-file flag.
	EnvVaultPasswordFile = "VAULT_PASSWORD_FILE"

	// EnvSSHArgs carries extra SSH options for Ansible connections.
	EnvSSHArgs = "ANSIBLE_SSH_ARGS"
)

// StageDirs holds the working directories of the playbook-backed stages,
// relative to the repository root.
type StageDirs struct {
	Preparing   string `yaml:"preparing"`
	HAProxy     string `yaml:"haproxy"`
	Kubespray   string `yaml:"kubespray"`
	Postcluster string `yaml:"postcluster"`
}

// VenvConfig describes the isolated Python toolchain used by the kubespray
// stage.
type VenvConfig struct {
	// Path is the virtualenv directory. Created on first use, reused after.
	Path string `yaml:"path"`

	// Requirements is the pinned dependency manifest installed into the venv.
	Requirements string `yaml:"requirements"`
}

// KubeconfigConfig controls the final credential retrieval stage.
type KubeconfigConfig struct {
	// Dest is where the admin kubeconfig is installed, relative to the
	// repository root unless absolute.
	Dest string `yaml:"dest"`

	// RemoteHost selects remote-fetch mode when non-empty: the kubeconfig is
	// read over SSH from this host instead of the kubespray artifact tree.
	RemoteHost string `yaml:"remote_host"`

	// RemoteUser is the SSH login user for remote-fetch mode.
	RemoteUser string `yaml:"remote_user"`

	// RemotePath is the credential location on the control plane node.
	RemotePath string `yaml:"remote_path"`

	// IdentityFile is the SSH private key used for remote-fetch mode.
	IdentityFile string `yaml:"identity_file"`
}

// Config is the full configuration for one pipeline run.
type Config struct {
	Stages     StageDirs        `yaml:"stages"`
	Venv       VenvConfig       `yaml:"venv"`
	Kubeconfig KubeconfigConfig `yaml:"kubeconfig"`

	// ControlPathDir is the shared SSH connection-multiplexing socket
	// directory used by all Ansible stages.
	ControlPathDir string `yaml:"control_path_dir"`

	// VaultPasswordFile comes from VAULT_PASSWORD_FILE, never from the file.
	VaultPasswordFile string `yaml:"-"`

	// SSHArgs comes from ANSIBLE_SSH_ARGS, never from the file.
	SSHArgs string `yaml:"-"`

	// RepoRoot anchors all relative paths. Defaults to the current directory.
	RepoRoot string `yaml:"-"`
}

// Default returns the configuration used when no cluster.yaml exists.
func Default() *Config {
	return &Config{
		Stages: StageDirs{
			Preparing:   "preparing",
			HAProxy:     "haproxy",
			Kubespray:   "kubespray",
			Postcluster: "postcluster",
		},
		Venv: VenvConfig{
			Path:         ".venv",
			Requirements: filepath.Join("kubespray", "requirements.txt"),
		},
		Kubeconfig: KubeconfigConfig{
			Dest:       "admin.conf",
			RemoteUser: "root",
			RemotePath: "/etc/kubernetes/admin.conf",
		},
		ControlPathDir: filepath.Join(os.TempDir(), "k8s-cluster-setup-cp"),
	}
}

// Load reads the configuration file at path, or the default path when path
// is empty. A missing file at the default path is not an error; defaults
// apply. Environment variables are layered on afterwards in either case.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No cluster.yaml, run on defaults.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()

	if cfg.RepoRoot == "" {
		root, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine repository root: %w", err)
		}
		cfg.RepoRoot = root
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvVaultPasswordFile); v != "" {
		c.VaultPasswordFile = v
	}
	if v := os.Getenv(EnvSSHArgs); v != "" {
		c.SSHArgs = v
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Stages.Preparing == "" || c.Stages.HAProxy == "" ||
		c.Stages.Kubespray == "" || c.Stages.Postcluster == "" {
		return fmt.Errorf("all stage directories must be set")
	}
	if c.Venv.Path == "" {
		return fmt.Errorf("venv path must be set")
	}
	if c.Venv.Requirements == "" {
		return fmt.Errorf("venv requirements manifest must be set")
	}
	if c.Kubeconfig.Dest == "" {
		return fmt.Errorf("kubeconfig destination must be set")
	}
	if c.Kubeconfig.RemoteHost != "" && c.Kubeconfig.RemoteUser == "" {
		return fmt.Errorf("kubeconfig remote_user is required with remote_host")
	}
	if c.Kubeconfig.RemoteHost != "" && c.Kubeconfig.IdentityFile == "" {
		return fmt.Errorf("kubeconfig identity_file is required with remote_host")
	}
	return nil
}

// Abs resolves a configured path against the repository root.
func (c *Config) Abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.RepoRoot, path)
}

// KubeconfigDest resolves the kubeconfig destination path.
func (c *Config) KubeconfigDest() string { return c.Abs(c.Kubeconfig.Dest) }

// RequirementsPath resolves the venv requirements manifest path.
func (c *Config) RequirementsPath() string { return c.Abs(c.Venv.Requirements) }

// VenvPath resolves the virtualenv directory.
func (c *Config) VenvPath() string { return c.Abs(c.Venv.Path) }
