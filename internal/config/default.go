package config

import (
	"fmt"

	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/led"
)

// CC numbering of the stock surface.
const (
	DefaultChannel      = 8
	DefaultTrackCountCC = 126
	PotCCBase           = 20
	ButtonCCBase        = 50
	MasterPlayCC        = 110
	MasterRecCC         = 111
	MasterPotCCBase     = 115
)

const iioDevice = "/sys/bus/iio/devices/iio:device0"

// DefaultLayout is the stock PossumBox: two expanders carrying the
// solo/mute and record/play rows, sixteen pots behind the mux, two master
// buttons and four master pots on direct inputs.
func DefaultLayout() Layout {
	l := Layout{
		LED: LEDConfig{
			PressedFactor: led.DefaultPressedFactor,
			Max:           led.DefaultMax,
			Pattern:       led.DefaultPattern,
			IREF:          0x06,
			Base: map[string]int{
				"red":    24,
				"green":  16,
				"blue":   31,
				"yellow": 20,
				"white":  28,
			},
		},
		Hardware: HardwareConfig{
			Expanders:  []int{0x24, 0x26},
			LEDDrivers: []int{0x0B, 0x0D},
			MuxSelect:  []string{"GPIO8", "GPIO9", "GPIO10"},
			MuxSettle:  "0s",
			Debounce:   "10ms",
			ADC:        make(map[string]ADCConfig),
		},
	}
	for _, n := range []int{0, 1, 2, 3, 8, 9} {
		l.Hardware.ADC[fmt.Sprintf("A%d", n)] = ADCConfig{
			Path: fmt.Sprintf("%s/in_voltage%d_raw", iioDevice, n),
			Bits: 12,
		}
	}

	// Expander 0: S/M pairs, track 8 down to 1 on pins 0..15, LEDs on
	// driver 0 channels 19 down to 4.
	for n := 0; n < 16; n++ {
		track := 8 - n/2
		name, color := fmt.Sprintf("S%d", track), "blue"
		if n%2 == 1 {
			name, color = fmt.Sprintf("M%d", track), "yellow"
		}
		l.Controls = append(l.Controls, ControlConfig{
			Name: name, Kind: control.KindExpanderButton.String(),
			CC: ButtonCCBase + n, Track: track, Color: color,
			Expander: 0, Pin: n, LEDDriver: 0, LEDChannel: 19 - n,
		})
	}

	// Expander 1: R/P pairs on driver 1.
	ledChannels := []int{23, 22, 21, 20, 19, 18, 17, 16, 7, 6, 5, 4, 3, 2, 1, 0}
	for n := 0; n < 16; n++ {
		track := 8 - n/2
		name, color := fmt.Sprintf("R%d", track), "red"
		if n%2 == 1 {
			name, color = fmt.Sprintf("P%d", track), "green"
		}
		l.Controls = append(l.Controls, ControlConfig{
			Name: name, Kind: control.KindExpanderButton.String(),
			CC: ButtonCCBase + 16 + n, Track: track, Color: color,
			Expander: 1, Pin: n, LEDDriver: 1, LEDChannel: ledChannels[n],
		})
	}

	// Mux pots: G (gain) then U (send) per track. Tracks 1-4 on A8, 5-8 on A9.
	gainChannels := []int{5, 7, 6, 4}
	sendChannels := []int{3, 0, 1, 2}
	for i, prefix := range []string{"G", "U"} {
		chans := gainChannels
		if prefix == "U" {
			chans = sendChannels
		}
		for n := 0; n < 8; n++ {
			adc := "A8"
			if n >= 4 {
				adc = "A9"
			}
			l.Controls = append(l.Controls, ControlConfig{
				Name: fmt.Sprintf("%s%d", prefix, n+1), Kind: control.KindMuxPot.String(),
				CC: PotCCBase + i*8 + n, Track: n + 1,
				ADC: adc, MuxChannel: chans[n%4],
			})
		}
	}

	l.Controls = append(l.Controls,
		ControlConfig{
			Name: "REC", Kind: control.KindButton.String(), CC: MasterRecCC,
			Color: "red", GPIO: "GPIO12", LEDDriver: 1, LEDChannel: 12,
		},
		ControlConfig{
			Name: "PLAY", Kind: control.KindButton.String(), CC: MasterPlayCC,
			Color: "green", GPIO: "GPIO13", LEDDriver: 1, LEDChannel: 13,
		},
	)
	for i, adc := range []string{"A3", "A2", "A0", "A1"} {
		l.Controls = append(l.Controls, ControlConfig{
			Name: fmt.Sprintf("FX%d", i+1), Kind: control.KindPot.String(),
			CC: MasterPotCCBase + i, ADC: adc,
		})
	}
	return l
}
