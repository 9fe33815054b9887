package transport

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
)

// Defaults applied when a saved configuration leaves them unset.
const (
	DefaultSenderName   = "SMS Forwarder"
	DefaultSTARTTLSPort = 587
	DefaultImplicitPort = 465
)

// Input is the save payload for the transport configuration.
type Input struct {
	Kind       Kind   `json:"email_type"`
	Host       string `json:"smtp_server"`
	Port       int    `json:"smtp_port"`
	Username   string `json:"smtp_username"`
	Password   string `json:"smtp_password"`
	UseTLS     *bool  `json:"use_tls"`
	Recipient  string `json:"recipient_email"`
	SenderName string `json:"sender_name"`
}

// Service manages the singleton transport configuration.
type Service struct {
	store    Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService creates a new transport service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		store:    store,
		validate: v,
		logger:   logger,
	}
}

// Save validates in and atomically replaces the active configuration.
func (svc *Service) Save(ctx context.Context, in Input) (*Config, error) {
	cfg := &Config{
		Entity:     entity.New(),
		ID:         id.NewTransportID(),
		Kind:       in.Kind,
		Host:       strings.TrimSpace(in.Host),
		Port:       in.Port,
		Username:   in.Username,
		Password:   in.Password,
		UseTLS:     true,
		Recipient:  strings.TrimSpace(in.Recipient),
		SenderName: in.SenderName,
	}
	if in.UseTLS != nil {
		cfg.UseTLS = *in.UseTLS
	}
	applyDefaults(cfg)

	if err := svc.Validate(cfg); err != nil {
		return nil, err
	}

	if err := svc.store.ReplaceTransport(ctx, cfg); err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "transport configuration saved",
		"config_id", cfg.ID,
		"kind", cfg.Kind,
		"host", cfg.Host,
	)
	return cfg, nil
}

// Current returns the active configuration.
func (svc *Service) Current(ctx context.Context) (*Config, error) {
	return svc.store.CurrentTransport(ctx)
}

// Validate checks cfg against its field constraints.
func (svc *Service) Validate(cfg *Config) error {
	err := svc.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describe(fe)}
	}
	return &ValidationError{Field: "config", Message: err.Error()}
}

func applyDefaults(cfg *Config) {
	if cfg.Kind == "" {
		cfg.Kind = KindSMTP
	}
	if cfg.SenderName == "" {
		cfg.SenderName = DefaultSenderName
	}
	if cfg.Kind == KindSMTP && cfg.Port == 0 {
		if cfg.UseTLS {
			cfg.Port = DefaultSTARTTLSPort
		} else {
			cfg.Port = DefaultImplicitPort
		}
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "required"
	case "email":
		return "invalid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "max":
		return "out of range"
	default:
		return "invalid value"
	}
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "transport validation: " + e.Field + ": " + e.Message
}
