package agents

// Tuning holds the planner's balance knobs.
type Tuning struct {
	MaxHaulAmount     uint8  `mapstructure:"max_haul_amount" yaml:"max_haul_amount" json:"max_haul_amount" validate:"min=1"`
	WaitTicks         uint64 `mapstructure:"wait_ticks" yaml:"wait_ticks" json:"wait_ticks"`
	CarryCapacity     uint8  `mapstructure:"carry_capacity" yaml:"carry_capacity" json:"carry_capacity" validate:"min=1"`
	LowOxygen         uint8  `mapstructure:"low_oxygen" yaml:"low_oxygen" json:"low_oxygen" validate:"lt=10"`
	DemoralizedMorale uint8  `mapstructure:"demoralized_morale" yaml:"demoralized_morale" json:"demoralized_morale" validate:"lt=10"`
	IdleRelaxTicks    uint32 `mapstructure:"idle_relax_ticks" yaml:"idle_relax_ticks" json:"idle_relax_ticks"`
	RelaxRadius       int    `mapstructure:"relax_radius" yaml:"relax_radius" json:"relax_radius" validate:"min=1,max=16"`
}

// DefaultTuning returns the stock values.
func DefaultTuning() Tuning {
	return Tuning{
		MaxHaulAmount:     2,
		WaitTicks:         300,
		CarryCapacity:     4,
		LowOxygen:         3,
		DemoralizedMorale: 2,
		IdleRelaxTicks:    50,
		RelaxRadius:       3,
	}
}
