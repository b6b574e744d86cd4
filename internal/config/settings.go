package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the credentials and endpoints of the external collaborators.
// Every key may be overridden by an environment variable of the same name.
type Settings struct {
	MailgunAPIKey string `mapstructure:"mg_api_key"`
	MailgunAPIURL string `mapstructure:"mg_api_url"`
	MailFrom      string `mapstructure:"mg_from"`

	SlackToken  string `mapstructure:"slack_token"`
	SlackAPIURL string `mapstructure:"slack_api_url"`

	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	AWSRegion          string `mapstructure:"aws_region"`
	S3Endpoint         string `mapstructure:"s3_endpoint"`
	Bucket             string `mapstructure:"bucket"`

	MyEmailAddress string `mapstructure:"my_email_address"`
	MyMobile       string `mapstructure:"my_mobile"`

	TwilioAccountSID   string `mapstructure:"twilio_account_sid"`
	TwilioAuthToken    string `mapstructure:"twilio_auth_token"`
	TwilioOriginNumber string `mapstructure:"twilio_origin_number"`
	TwilioAPIURL       string `mapstructure:"twilio_api_url"`

	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
}

var settingsDefaults = map[string]any{
	"MG_API_KEY":            "",
	"MG_API_URL":            "https://api.mailgun.net/v3/mg.yew.io",
	"MG_FROM":               "info@yew.io",
	"SLACK_TOKEN":           "",
	"SLACK_API_URL":         "https://slack.com/api",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"AWS_REGION":            "us-east-1",
	"S3_ENDPOINT":           "",
	"BUCKET":                "",
	"MY_EMAIL_ADDRESS":      "",
	"MY_MOBILE":             "",
	"TWILIO_ACCOUNT_SID":    "",
	"TWILIO_AUTH_TOKEN":     "",
	"TWILIO_ORIGIN_NUMBER":  "",
	"TWILIO_API_URL":        "https://api.twilio.com",
	"SMTP_HOST":             "",
	"SMTP_PORT":             587,
	"SMTP_USERNAME":         "",
	"SMTP_PASSWORD":         "",
}

var secretKeys = map[string]bool{
	"MG_API_KEY":            true,
	"SLACK_TOKEN":           true,
	"AWS_SECRET_ACCESS_KEY": true,
	"TWILIO_AUTH_TOKEN":     true,
	"SMTP_PASSWORD":         true,
}

// LoadSettings reads the JSON settings file at path. A missing file is not an
// error; the defaults and the environment still apply.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	for k, val := range settingsDefaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	s.MailgunAPIURL = strings.TrimRight(s.MailgunAPIURL, "/")
	s.SlackAPIURL = strings.TrimRight(s.SlackAPIURL, "/")
	s.TwilioAPIURL = strings.TrimRight(s.TwilioAPIURL, "/")
	return &s, nil
}

// Item is one settings key with its display value.
type Item struct {
	Key   string
	Value string
}

// Items lists every key in alphabetical order. Secret values are masked.
func (s *Settings) Items() []Item {
	values := map[string]string{
		"MG_API_KEY":            s.MailgunAPIKey,
		"MG_API_URL":            s.MailgunAPIURL,
		"MG_FROM":               s.MailFrom,
		"SLACK_TOKEN":           s.SlackToken,
		"SLACK_API_URL":         s.SlackAPIURL,
		"AWS_ACCESS_KEY_ID":     s.AWSAccessKeyID,
		"AWS_SECRET_ACCESS_KEY": s.AWSSecretAccessKey,
		"AWS_REGION":            s.AWSRegion,
		"S3_ENDPOINT":           s.S3Endpoint,
		"BUCKET":                s.Bucket,
		"MY_EMAIL_ADDRESS":      s.MyEmailAddress,
		"MY_MOBILE":             s.MyMobile,
		"TWILIO_ACCOUNT_SID":    s.TwilioAccountSID,
		"TWILIO_AUTH_TOKEN":     s.TwilioAuthToken,
		"TWILIO_ORIGIN_NUMBER":  s.TwilioOriginNumber,
		"TWILIO_API_URL":        s.TwilioAPIURL,
		"SMTP_HOST":             s.SMTPHost,
		"SMTP_PORT":             fmt.Sprint(s.SMTPPort),
		"SMTP_USERNAME":         s.SMTPUsername,
		"SMTP_PASSWORD":         s.SMTPPassword,
	}
	items := make([]Item, 0, len(values))
	for k, v := range values {
		if secretKeys[k] {
			v = mask(v)
		}
		items = append(items, Item{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items
}

func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return v[:2] + strings.Repeat("*", len(v)-4) + v[len(v)-2:]
}
