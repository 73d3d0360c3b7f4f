package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Auth     Auth     `yaml:"auth"`
	Mail     Mail     `yaml:"mail"`
	Frontend Frontend `yaml:"frontend"`
}

type Server struct {
	ListenAddr    string `yaml:"listenAddr"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisDB       int    `yaml:"redisDB"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

// Auth holds the signing secret and token lifetimes. Expiries are minutes,
// matching how operators already express them elsewhere in the deployment.
type Auth struct {
	Secret      string `yaml:"secret"`
	Algorithm   string `yaml:"algorithm"`   // e.g. HS256
	TokenPrefix string `yaml:"tokenPrefix"` // scheme in "<prefix> <token>"

	AccessExpireMinutes             int `yaml:"accessExpireMinutes"`
	ActivationExpireMinutes         int `yaml:"activationExpireMinutes"`
	GroupInviteMemberExpireMinutes  int `yaml:"groupInviteMemberExpireMinutes"`
	GroupInviteCoOwnerExpireMinutes int `yaml:"groupInviteCoOwnerExpireMinutes"`
	UserInviteExpireMinutes         int `yaml:"userInviteExpireMinutes"`
}

func (a Auth) AccessExpiry() time.Duration {
	return time.Duration(a.AccessExpireMinutes) * time.Minute
}

func (a Auth) ActivationExpiry() time.Duration {
	return time.Duration(a.ActivationExpireMinutes) * time.Minute
}

func (a Auth) GroupInviteMemberExpiry() time.Duration {
	return time.Duration(a.GroupInviteMemberExpireMinutes) * time.Minute
}

func (a Auth) GroupInviteCoOwnerExpiry() time.Duration {
	return time.Duration(a.GroupInviteCoOwnerExpireMinutes) * time.Minute
}

func (a Auth) UserInviteExpiry() time.Duration {
	return time.Duration(a.UserInviteExpireMinutes) * time.Minute
}

type Mail struct {
	SmtpHost     string `yaml:"smtpHost"`
	SmtpPort     int    `yaml:"smtpPort"`
	SmtpUser     string `yaml:"smtpUser"`
	SmtpPassword string `yaml:"smtpPassword"`
	From         string `yaml:"from"`
}

// Frontend describes where action links in outbound mail point to.
type Frontend struct {
	BaseURL        string `yaml:"baseURL"`
	ActivationPath string `yaml:"activationPath"`
	RecoveryPath   string `yaml:"recoveryPath"`
	InvitePath     string `yaml:"invitePath"`
}

// ActionLink builds "<base><path>?token=<token>".
func (f Frontend) ActionLink(path string, token string) string {
	return fmt.Sprintf("%s%s?token=%s", f.BaseURL, path, token)
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Auth.Algorithm == "" {
		config.Auth.Algorithm = "HS256"
	}
	if config.Auth.TokenPrefix == "" {
		config.Auth.TokenPrefix = "Token"
	}
	if config.Auth.AccessExpireMinutes == 0 {
		config.Auth.AccessExpireMinutes = 60 * 24
	}
	if config.Auth.ActivationExpireMinutes == 0 {
		config.Auth.ActivationExpireMinutes = 60 * 24
	}
	if config.Auth.GroupInviteMemberExpireMinutes == 0 {
		config.Auth.GroupInviteMemberExpireMinutes = 60 * 24 * 3
	}
	if config.Auth.GroupInviteCoOwnerExpireMinutes == 0 {
		config.Auth.GroupInviteCoOwnerExpireMinutes = 60 * 24
	}
	if config.Auth.UserInviteExpireMinutes == 0 {
		config.Auth.UserInviteExpireMinutes = 60 * 24 * 7
	}

	return config, nil
}
