package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/robosim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.StopMode != StopAbrupt {
		t.Errorf("expected abrupt stop by default, got %s", cfg.StopMode)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative speed", func(c *Config) { c.MaxLinear = -1 }},
		{"NaN accel", func(c *Config) { c.AngularAccel = math.NaN() }},
		{"infinite threshold", func(c *Config) { c.ThresholdXY = math.Inf(1) }},
		{"unknown stop mode", func(c *Config) { c.StopMode = "gentle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("expected ErrParameterBounds, got %v", err)
			}
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	if _, err := New("tank", DefaultConfig(), nil); !errors.Is(err, dynamo.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"basic", KindBasic, false},
		{"galipeur", KindGalipeur, false},
		{"", KindBasic, false},
		{"arm", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseKind(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestOrders_RejectNonFinite(t *testing.T) {
	c, err := New(KindBasic, DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	nan, inf := math.NaN(), math.Inf(1)
	calls := map[string]func() error{
		"xy NaN":      func() error { return c.OrderGoXY(dynamo.Vec2{X: nan}, false) },
		"xy Inf":      func() error { return c.OrderGoXY(dynamo.Vec2{Y: inf}, true) },
		"turn NaN":    func() error { return c.OrderTurn(nan, false) },
		"xya bad a":   func() error { return c.OrderGoXYAndTurn(dynamo.Vec2{X: 1}, inf, false) },
		"back NaN":    func() error { return c.OrderGoBack(nan) },
		"back negate": func() error { return c.OrderGoBack(-0.1) },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, dynamo.ErrInvalidOrder) {
			t.Errorf("%s: expected ErrInvalidOrder, got %v", name, err)
		}
	}
	if !c.IsArrived() {
		t.Errorf("rejected orders must not set goals, got %s", c.Orders())
	}
}

func TestOrders_RejectRelativeOverflow(t *testing.T) {
	c, err := New(KindBasic, DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c.Update(dynamo.Snapshot{Pose: dynamo.Pose2D{X: 1e308}})

	if err := c.OrderGoXY(dynamo.Vec2{X: 1e308}, true); !errors.Is(err, dynamo.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
	if err := c.OrderGoXYAndTurn(dynamo.Vec2{X: 1e308}, 0, true); !errors.Is(err, dynamo.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder, got %v", err)
	}
	if !c.IsArrived() {
		t.Errorf("rejected orders must not set goals, got %s", c.Orders())
	}
	if err := c.OrderGoXY(dynamo.Vec2{X: -1}, true); err != nil {
		t.Errorf("finite relative target rejected: %v", err)
	}
}

func TestOrderSet_String(t *testing.T) {
	var o OrderSet
	if o.String() != "none" {
		t.Errorf("expected none, got %s", o)
	}
	o.GoXY, o.GoA = true, true
	if o.String() != "xy+a" {
		t.Errorf("expected xy+a, got %s", o)
	}
	o.GoBack = true
	if o.String() != "back+xy+a" {
		t.Errorf("expected back+xy+a, got %s", o)
	}
	o.Clear()
	if !o.Empty() {
		t.Error("Clear should empty the set")
	}
}

func TestSetters(t *testing.T) {
	c, err := New(KindGalipeur, DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SetSpeedXY(1.2, 0.4); err != nil {
		t.Fatalf("SetSpeedXY: %v", err)
	}
	if c.linear.VarV != 1.2 || c.linear.VarA != 0.4 {
		t.Errorf("linear ramp not updated: %+v", c.linear)
	}
	if err := c.SetSpeedA(2, 0); err != nil {
		t.Fatalf("SetSpeedA: %v", err)
	}
	if c.angular.VarV != 2 || c.angular.VarA != 0 {
		t.Errorf("angular ramp not updated: %+v", c.angular)
	}
	if err := c.SetThresholdXY(-1); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	if err := c.SetThresholdA(0.1); err != nil || c.Config().ThresholdA != 0.1 {
		t.Errorf("SetThresholdA failed: %v", err)
	}
}

func TestConfigurable(t *testing.T) {
	c, err := New(KindBasic, DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}

	params := c.GetParams()
	if params["max_linear"] != DefaultMaxLinear {
		t.Errorf("expected max_linear %v, got %v", DefaultMaxLinear, params["max_linear"])
	}
	if err := c.SetParam("max_angular", 1.5); err != nil {
		t.Fatal(err)
	}
	if c.Config().MaxAngular != 1.5 {
		t.Errorf("SetParam did not apply: %v", c.Config().MaxAngular)
	}
	if err := c.SetParam("kp", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestZeroAccelerationIsUnramped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LinearAccel = 0
	c, err := New(KindBasic, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.OrderGoXY(dynamo.Vec2{X: 1}, false); err != nil {
		t.Fatal(err)
	}

	cmd := c.Step(dynamo.Snapshot{}, 0.01)
	if cmd.VX != DefaultMaxLinear {
		t.Errorf("expected unramped %v, got %v", DefaultMaxLinear, cmd.VX)
	}
}
