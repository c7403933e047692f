package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingPolicy holds the tunable knobs of the invoice coverage and totals
// engine. Values are operator policy, not code: they live in billing.yml and
// hot-reload without a restart.
type BillingPolicy struct {
	// DefaultHourlyRate is the last-resort rate when neither the invoice,
	// the guardian profile, nor the line items carry one.
	DefaultHourlyRate float64 `mapstructure:"defaultHourlyRate"`

	// RefillKeywords mark identity-less line items as non-class lines
	// (bulk hour purchases). Matched case-insensitively as substrings.
	RefillKeywords []string `mapstructure:"refillKeywords"`

	// BoundaryToleranceHours is the slack allowed when matching a paid-hours
	// figure against a class boundary.
	BoundaryToleranceHours float64 `mapstructure:"boundaryToleranceHours"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		DefaultHourlyRate:      60,
		RefillKeywords:         []string{"refill", "top-up", "topup"},
		BoundaryToleranceHours: 0.005,
	}
}

// BillingPolicyHolder exposes the currently effective policy; the value is
// swapped atomically on config reload.
type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tutorledger/config") // Volume-mounted config
	v.AddConfigPath("/etc/tutorledger")            // System config
	v.AddConfigPath(".")                           // Current directory (dev mode)

	v.SetEnvPrefix("TUTORLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingPolicy()
	v.SetDefault("billing.defaultHourlyRate", defaults.DefaultHourlyRate)
	v.SetDefault("billing.refillKeywords", defaults.RefillKeywords)
	v.SetDefault("billing.boundaryToleranceHours", defaults.BoundaryToleranceHours)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	if err := validateBillingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingPolicy
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-policy] reload failed: %v", err)
			return
		}
		if err := validateBillingPolicy(updated); err != nil {
			log.Printf("[billing-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	return h.current.Load().(BillingPolicy)
}

// NewStaticBillingPolicyHolder wraps a fixed policy; used by tests.
func NewStaticBillingPolicyHolder(policy BillingPolicy) *BillingPolicyHolder {
	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func validateBillingPolicy(policy BillingPolicy) error {
	if policy.DefaultHourlyRate <= 0 {
		return errors.New("billing.defaultHourlyRate must be positive")
	}
	if len(policy.RefillKeywords) == 0 {
		return errors.New("billing.refillKeywords cannot be empty")
	}
	if policy.BoundaryToleranceHours <= 0 {
		return errors.New("billing.boundaryToleranceHours must be positive")
	}
	return nil
}
