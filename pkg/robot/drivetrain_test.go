package robot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"go.einride.tech/can"

	"github.com/gwillem/sumob/pkg/drive"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func TestWheels_ApplyDirections(t *testing.T) {
	p := drive.WheelPowers{FrontLeft: 0.5, BackLeft: -0.25, FrontRight: 1, BackRight: -1}
	got := DefaultWheels().ApplyDirections(p)

	expected := map[WheelName]float64{
		FrontLeft:  -0.5,
		BackLeft:   0.25,
		FrontRight: 1,
		BackRight:  -1,
	}
	for name, want := range expected {
		if got[name] != want {
			t.Errorf("%s = %v, want %v", name, got[name], want)
		}
	}
}

func TestScaleMotorOutput(t *testing.T) {
	tests := []struct {
		value    float64
		expected int
	}{
		{0, 0},
		{1, 255},
		{-1, -255},
		{0.5, 128},
		{-0.5, -128},
		{2, 255},
	}

	for _, tt := range tests {
		if got := scaleMotorOutput(tt.value, 255); got != tt.expected {
			t.Errorf("scaleMotorOutput(%v) = %d, want %d", tt.value, got, tt.expected)
		}
	}
}

func TestSerialDrivetrain(t *testing.T) {
	ctx := context.Background()
	port := &bufferPort{}
	d := NewSerialDrivetrain(port, DefaultWheels())

	if err := d.Configure(ctx, Brake); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got, want := port.String(), "3 0 1\n3 1 1\n3 2 1\n3 3 1\n"; got != want {
		t.Errorf("Configure wrote %q, want %q", got, want)
	}
	port.Reset()

	if err := d.SetPowers(ctx, drive.WheelPowers{FrontLeft: 1, BackLeft: 1, FrontRight: 1, BackRight: 1}); err != nil {
		t.Fatalf("SetPowers: %v", err)
	}
	if got, want := port.String(), "1 0 -255\n1 1 -255\n1 2 255\n1 3 255\n"; got != want {
		t.Errorf("SetPowers wrote %q, want %q", got, want)
	}
	port.Reset()

	// Only changed motors are resent.
	if err := d.SetPowers(ctx, drive.WheelPowers{FrontLeft: 1, BackLeft: 1, FrontRight: 0, BackRight: 1}); err != nil {
		t.Fatalf("SetPowers: %v", err)
	}
	if got, want := port.String(), "1 2 0\n"; got != want {
		t.Errorf("second SetPowers wrote %q, want %q", got, want)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !port.closed {
		t.Error("port not closed")
	}
	if err := d.SetPowers(ctx, drive.WheelPowers{}); !errors.Is(err, ErrClosed) {
		t.Errorf("SetPowers after Close = %v, want ErrClosed", err)
	}
}

// flakyPort fails its first n writes.
type flakyPort struct {
	bufferPort
	failures int
}

func (f *flakyPort) Write(p []byte) (int, error) {
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("transient")
	}
	return f.bufferPort.Write(p)
}

func TestSerialDrivetrain_RecoversAfterWriteError(t *testing.T) {
	ctx := context.Background()
	port := &flakyPort{failures: 1}
	d := NewSerialDrivetrain(port, DefaultWheels())

	forward := drive.WheelPowers{FrontLeft: 1, BackLeft: 1, FrontRight: 1, BackRight: 1}
	if err := d.SetPowers(ctx, forward); err == nil {
		t.Fatal("expected error from failing port")
	}
	if port.Len() != 0 {
		t.Errorf("failed write left %q on the port", port.String())
	}

	// The same command is resent in full once the port recovers.
	if err := d.SetPowers(ctx, forward); err != nil {
		t.Fatalf("SetPowers after recovery: %v", err)
	}
	if got, want := port.String(), "1 0 -255\n1 1 -255\n1 2 255\n1 3 255\n"; got != want {
		t.Errorf("resend wrote %q, want %q", got, want)
	}
	port.Reset()

	if err := d.SetPowers(ctx, drive.WheelPowers{}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got, want := port.String(), "1 0 0\n1 1 0\n1 2 0\n1 3 0\n"; got != want {
		t.Errorf("stop wrote %q, want %q", got, want)
	}
}

func TestSerialDrivetrain_Float(t *testing.T) {
	port := &bufferPort{}
	d := NewSerialDrivetrain(port, DefaultWheels())
	if err := d.Configure(context.Background(), Float); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if got, want := port.String(), "3 0 0\n3 1 0\n3 2 0\n3 3 0\n"; got != want {
		t.Errorf("Configure wrote %q, want %q", got, want)
	}
}

type frameRecorder struct {
	frames []can.Frame
}

func (r *frameRecorder) TransmitFrame(ctx context.Context, f can.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func TestCANDrivetrain(t *testing.T) {
	ctx := context.Background()
	rec := &frameRecorder{}
	d := NewCANDrivetrain(rec, CANConfig{Interface: "vcan0"}, DefaultWheels())

	if err := d.Configure(ctx, Brake); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := d.SetPowers(ctx, drive.WheelPowers{FrontLeft: 1, BackLeft: 0.5, FrontRight: -1, BackRight: 0}); err != nil {
		t.Fatalf("SetPowers: %v", err)
	}

	if len(rec.frames) != 2 {
		t.Fatalf("sent %d frames, want 2", len(rec.frames))
	}

	cfg := rec.frames[0]
	if cfg.ID != DefaultCANConfigID || cfg.Length != 4 {
		t.Errorf("config frame = %+v", cfg)
	}
	for i := 0; i < 4; i++ {
		if cfg.Data[i] != 1 {
			t.Errorf("config byte %d = %d, want 1", i, cfg.Data[i])
		}
	}

	pf := rec.frames[1]
	if pf.ID != DefaultCANPowerID || pf.Length != 8 {
		t.Errorf("power frame = %+v", pf)
	}
	expected := []int16{-32767, -16384, -32767, 0}
	for i, want := range expected {
		got := int16(binary.LittleEndian.Uint16(pf.Data[i*2 : i*2+2]))
		if got != want {
			t.Errorf("motor %d = %d, want %d", i, got, want)
		}
	}

	if err := d.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestSimDrivetrain(t *testing.T) {
	ctx := context.Background()
	d := NewSimDrivetrain()

	d.Configure(ctx, Float)
	d.SetPowers(ctx, drive.WheelPowers{FrontLeft: 0.3})
	if p, n := d.Last(); n != 1 || p.FrontLeft != 0.3 {
		t.Errorf("Last() = %+v, %d", p, n)
	}
	if d.ZeroPower() != Float {
		t.Errorf("ZeroPower() = %q", d.ZeroPower())
	}

	d.Close()
	if err := d.SetPowers(ctx, drive.WheelPowers{}); !errors.Is(err, ErrClosed) {
		t.Errorf("SetPowers after Close = %v", err)
	}
}
