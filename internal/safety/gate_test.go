package safety_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/usbforge/usbforge/internal/model"
	"github.com/usbforge/usbforge/internal/safety"
	"github.com/usbforge/usbforge/internal/safety/safetymock"
)

// fakeClock advances by step every time it is read.
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func testDescriptor(t *testing.T, repartition bool) model.WriteDescriptor {
	t.Helper()

	desc, err := model.NewWriteDescriptor(model.WriteOptions{
		SourcePath: "/images/win11.wim",
		Target:     model.TargetDevice{ID: "disk-1"},
		Features:   model.ExtraFeatures{Repartition: repartition},
	})
	require.NoError(t, err)
	return *desc
}

func TestNewGate(t *testing.T) {
	tests := map[string]struct {
		config safety.GateConfig
		expErr bool
	}{
		"valid config should create gate": {
			config: safety.GateConfig{
				Preflight: safety.UnsupportedProvider{},
				Prompter:  &safetymock.MockPrompter{},
			},
			expErr: false,
		},
		"missing preflight provider should fail": {
			config: safety.GateConfig{Prompter: &safetymock.MockPrompter{}},
			expErr: true,
		},
		"missing prompter should fail": {
			config: safety.GateConfig{Preflight: safety.UnsupportedProvider{}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			gate, err := safety.NewGate(test.config)
			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.NotNil(t, gate)
			}
		})
	}
}

func TestGateAuthorize(t *testing.T) {
	writable := &model.WritableCheck{Supported: true, Writable: true}
	needsRemount := &model.WritableCheck{Supported: true, Writable: false, NeedsRemount: true, MountPoint: "/Volumes/WTG", Reason: "mounted read-only"}

	tests := map[string]struct {
		repartition   bool
		mockPreflight func(m *safetymock.MockPreflightProvider)
		mockPrompter  func(m *safetymock.MockPrompter)
		expErr        bool
		expCancel     bool
	}{
		"unsupported platform skips the check and asks for confirmation": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(false)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmDestructive", mock.Anything, mock.Anything).Once().Return(true, nil)
			},
		},

		"full repartition skips the pre-flight check": {
			repartition: true,
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmDestructive", mock.Anything, mock.Anything).Once().Return(true, nil)
			},
		},

		"writable target passes straight through": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(writable, nil)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmDestructive", mock.Anything, mock.Anything).Once().Return(true, nil)
			},
		},

		"remount flow runs on explicit operator action and re-checks": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(needsRemount, nil)
				m.On("Remount", mock.Anything, mock.Anything).Once().Return(writable, nil)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmRemount", mock.Anything, *needsRemount).Once().Return(true, nil)
				m.On("ConfirmDestructive", mock.Anything, mock.Anything).Once().Return(true, nil)
			},
		},

		"declined remount aborts without destructive confirmation": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(needsRemount, nil)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmRemount", mock.Anything, *needsRemount).Once().Return(false, nil)
			},
			expErr:    true,
			expCancel: true,
		},

		"remount failure aborts without destructive confirmation": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(needsRemount, nil)
				m.On("Remount", mock.Anything, mock.Anything).Once().Return(nil, errors.New("diskutil failed"))
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmRemount", mock.Anything, *needsRemount).Once().Return(true, nil)
			},
			expErr: true,
		},

		"remount that still needs remount aborts": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(needsRemount, nil)
				m.On("Remount", mock.Anything, mock.Anything).Once().Return(needsRemount, nil)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmRemount", mock.Anything, *needsRemount).Once().Return(true, nil)
			},
			expErr: true,
		},

		"pre-flight check failure aborts without destructive confirmation": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(nil, errors.New("diskutil info failed"))
			},
			mockPrompter: func(m *safetymock.MockPrompter) {},
			expErr:       true,
		},

		"unwritable target without remount remediation aborts": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(true)
				m.On("Check", mock.Anything, mock.Anything).Once().Return(&model.WritableCheck{
					Supported: true,
					Writable:  false,
					Reason:    "volume is locked",
				}, nil)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {},
			expErr:       true,
		},

		"declined destructive confirmation is a cancellation": {
			mockPreflight: func(m *safetymock.MockPreflightProvider) {
				m.On("Supported").Return(false)
			},
			mockPrompter: func(m *safetymock.MockPrompter) {
				m.On("ConfirmDestructive", mock.Anything, mock.Anything).Once().Return(false, nil)
			},
			expErr:    true,
			expCancel: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			preflight := &safetymock.MockPreflightProvider{}
			prompter := &safetymock.MockPrompter{}
			test.mockPreflight(preflight)
			test.mockPrompter(prompter)

			// Clock jumps past the cooldown on every read, so the
			// cooldown never interferes with these cases.
			clock := &fakeClock{now: time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC), step: 10 * time.Second}

			gate, err := safety.NewGate(safety.GateConfig{
				Preflight: preflight,
				Prompter:  prompter,
				Now:       clock.Now,
			})
			require.NoError(t, err)

			err = gate.Authorize(context.Background(), testDescriptor(t, test.repartition))
			if test.expErr {
				require.Error(t, err)
				assert.Equal(t, test.expCancel, errors.Is(err, model.ErrCancelled))
			} else {
				require.NoError(t, err)
			}

			preflight.AssertExpectations(t)
			prompter.AssertExpectations(t)
		})
	}
}

func TestGateCooldown(t *testing.T) {
	preflight := &safetymock.MockPreflightProvider{}
	preflight.On("Supported").Return(false)

	// First confirmation arrives 0.5s after the dialog opens, the second at
	// 2.1s. Only the second one fires the launch.
	base := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	times := []time.Time{
		base,                              // dialog opens, cooldown armed
		base.Add(500 * time.Millisecond),  // early confirm, ignored
		base.Add(2100 * time.Millisecond), // second confirm, accepted
	}
	i := 0
	now := func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}

	prompter := &safetymock.MockPrompter{}
	prompter.On("ConfirmDestructive", mock.Anything, mock.Anything).Twice().Return(true, nil)

	gate, err := safety.NewGate(safety.GateConfig{
		Preflight: preflight,
		Prompter:  prompter,
		Now:       now,
	})
	require.NoError(t, err)

	err = gate.Authorize(context.Background(), testDescriptor(t, false))
	require.NoError(t, err)

	prompter.AssertNumberOfCalls(t, "ConfirmDestructive", 2)
}
