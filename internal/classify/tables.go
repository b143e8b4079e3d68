// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package classify

// Shipped discriminant tables. Both were fit at 250 Hz on channels
// TA, MG, RF; the mode table only used TA and MG.

// DefaultModeModel is the locomotion-mode LDA, trained on 500-sample
// windows. Classes: sitting, level walking, ramp ascent, ramp descent.
func DefaultModeModel() *LDA {
	return MustLDA(9, []int{0, 1, 2, 3, 4, 5},
		[]float64{11.27914795, -6.67376791, -37.32819742, -9.55152424},
		[]float64{
			222.55794735, -180.84421412, -0.53869367, -1317.71100468, -617.47667040, 2.92799155,
			-333.73277434, 19.74225361, 0.70823106, -480.47154707, 680.00517888, -0.55189923,
			563.19728883, -70.55635035, -0.20774741, 1919.10033500, 769.05897865, -4.42325901,
			54.94411848, 324.48528652, -0.71053907, 2217.86222408, -1201.75132386, -0.63538710,
		},
		[]ClassID{Sitting, LevelWalking, RampAscent, RampDescent},
	)
}

// DefaultPhaseModel is the gait-phase LDA, trained on 50-sample windows.
// Classes: stance, swing, none.
func DefaultPhaseModel() *LDA {
	return MustLDA(9, nil,
		[]float64{-1.52854339, -0.50257199, -2.21347691},
		[]float64{
			-258.36090807, 44.46604704, 0.36068772, -480.05169126, 272.62456008, 0.23823900, -155.64048827, -101.55005795, 0.76708792,
			-345.26989900, 69.47061147, 0.42051518, -315.46287164, 217.50289439, 0.09830825, -6.70024954, -174.23456172, 0.36653707,
			309.23509119, -58.09730508, -0.40186587, 416.34737213, -255.05618434, -0.17835762, 88.60566848, 140.24109691, -0.59854456,
		},
		[]ClassID{Stance, Swing, NoPhase},
	)
}
