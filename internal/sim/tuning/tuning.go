package tuning

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version" validate:"required"`

	TickRateHz         int `yaml:"tick_rate_hz" validate:"min=1,max=240"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks" validate:"min=0"`
	ObsRadiusChunks    int `yaml:"obs_radius_chunks" validate:"min=0,max=8"`
	// ObsEveryTicks throttles OBS pushes per connection.
	ObsEveryTicks int `yaml:"obs_every_ticks" validate:"min=1"`

	Movement Movement   `yaml:"movement"`
	Spawn    [3]float64 `yaml:"spawn"`

	RateLimits RateLimits    `yaml:"rate_limits"`
	SessionTTL time.Duration `yaml:"session_ttl" validate:"min=1m"`
}

type Movement struct {
	AcceptanceRadius float64 `yaml:"acceptance_radius" validate:"gte=0.05"`
	Speed            float64 `yaml:"speed" validate:"gt=0"`
	MaxMoveDistance  float64 `yaml:"max_move_distance" validate:"gt=0"`
}

type RateLimits struct {
	// MoveRequestsPerSec is the per-identity MOVE budget.
	MoveRequestsPerSec int `yaml:"move_requests_per_sec" validate:"min=1"`
	SessionsPerMinute  int `yaml:"sessions_per_minute" validate:"min=1"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:    "1.0",
		TickRateHz:         30,
		SnapshotEveryTicks: 3000,
		ObsRadiusChunks:    2,
		ObsEveryTicks:      3,
		Movement: Movement{
			AcceptanceRadius: 0.5,
			Speed:            5.0,
			MaxMoveDistance:  50,
		},
		RateLimits: RateLimits{
			MoveRequestsPerSec: 10,
			SessionsPerMinute:  30,
		},
		SessionTTL: 24 * time.Hour,
	}
}

var validate = validator.New()

// Validate reports every field that fails its constraint in one error.
func (t Tuning) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("tuning: %s", strings.Join(msgs, "; "))
}

// Load reads a tuning file over Defaults, so omitted keys keep their default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
