// Package kalman defines the behaviour shared by Kalman filters over linear discrete models.
package kalman

import (
	filter "github.com/milosgajdos/go-kalman"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter
type Kalman interface {
	// filter.Filter predicts and corrects system state
	filter.Filter
	// Run predicts system state and corrects it using measurement z
	Run(z mat.Vector) (filter.Estimate, error)
	// Model returns the model the filter runs on
	Model() filter.DiscreteModel
	// ProcessNoiseCov returns process noise covariance Q
	ProcessNoiseCov() mat.Symmetric
	// Cov returns state covariance
	Cov() mat.Symmetric
	// Gain returns gain computed by the last successful update
	Gain() mat.Matrix
	// Innovation returns innovation computed by the last successful update
	Innovation() mat.Vector
}
