package nn

import (
	"fmt"
	"math"

	"github.com/openfluke/lazy/graph"
	"github.com/openfluke/lazy/mat"
)

// ActivationType selects an elementwise activation function.
type ActivationType int

const (
	ActivationScaledReLU ActivationType = 0 // v * 1.1, then ReLU
	ActivationSigmoid    ActivationType = 1 // 1 / (1 + exp(-v))
	ActivationTanh       ActivationType = 2 // tanh(v)
	ActivationSoftplus   ActivationType = 3 // log(1 + exp(v))
	ActivationLeakyReLU  ActivationType = 4 // v if v >= 0, else v * 0.1
	ActivationReLU       ActivationType = 5 // max(0, v)
	ActivationSoftsign   ActivationType = 6 // v / (1 + |v|)
	ActivationLinear     ActivationType = 7 // v
)

func (a ActivationType) String() string {
	switch a {
	case ActivationScaledReLU:
		return "scaled_relu"
	case ActivationSigmoid:
		return "sigmoid"
	case ActivationTanh:
		return "tanh"
	case ActivationSoftplus:
		return "softplus"
	case ActivationLeakyReLU:
		return "leaky_relu"
	case ActivationReLU:
		return "relu"
	case ActivationSoftsign:
		return "softsign"
	case ActivationLinear:
		return "linear"
	default:
		return fmt.Sprintf("ActivationType(%d)", int(a))
	}
}

// activate applies the activation function to one value
func activate[T mat.Float](v T, activation ActivationType) T {
	switch activation {
	case ActivationScaledReLU:
		v = v * 1.1
		if v < 0 {
			v = 0
		}
		return v
	case ActivationSigmoid:
		return 1.0 / (1.0 + T(math.Exp(float64(-v))))
	case ActivationTanh:
		return T(math.Tanh(float64(v)))
	case ActivationSoftplus:
		return T(math.Log1p(math.Exp(float64(v))))
	case ActivationLeakyReLU:
		if v < 0 {
			v = v * 0.1
		}
		return v
	case ActivationReLU:
		if v < 0 {
			return 0
		}
		return v
	case ActivationSoftsign:
		return v / (1 + T(math.Abs(float64(v))))
	default:
		return v
	}
}

// activateDerivative computes the derivative of the activation function
// with respect to the PRE-activation value
func activateDerivative[T mat.Float](preActivation T, activation ActivationType) T {
	switch activation {
	case ActivationScaledReLU:
		// d/dv (max(0, 1.1*v)) = 1.1 if v > 0, else 0
		if preActivation > 0 {
			return 1.1
		}
		return 0
	case ActivationSigmoid:
		sig := 1.0 / (1.0 + T(math.Exp(float64(-preActivation))))
		return sig * (1.0 - sig)
	case ActivationTanh:
		t := T(math.Tanh(float64(preActivation)))
		return 1.0 - t*t
	case ActivationSoftplus:
		// d/dv log(1 + e^v) = sigmoid(v)
		return 1.0 / (1.0 + T(math.Exp(float64(-preActivation))))
	case ActivationLeakyReLU:
		if preActivation >= 0 {
			return 1.0
		}
		return 0.1
	case ActivationReLU:
		if preActivation > 0 {
			return 1
		}
		return 0
	case ActivationSoftsign:
		d := 1 + T(math.Abs(float64(preActivation)))
		return 1 / (d * d)
	default:
		return 1.0
	}
}

// Activate applies activation to every entry of x.
func Activate[T mat.Float](x *graph.Node[T], activation ActivationType) *graph.Node[T] {
	return graph.Map(activation.String(), x,
		func(v T) T { return activate(v, activation) },
		func(v T) T { return activateDerivative(v, activation) })
}

func ReLU[T mat.Float](x *graph.Node[T]) *graph.Node[T]      { return Activate(x, ActivationReLU) }
func LeakyReLU[T mat.Float](x *graph.Node[T]) *graph.Node[T] { return Activate(x, ActivationLeakyReLU) }
func Sigmoid[T mat.Float](x *graph.Node[T]) *graph.Node[T]   { return Activate(x, ActivationSigmoid) }
func Tanh[T mat.Float](x *graph.Node[T]) *graph.Node[T]      { return Activate(x, ActivationTanh) }
func Softsign[T mat.Float](x *graph.Node[T]) *graph.Node[T]  { return Activate(x, ActivationSoftsign) }
func Softplus[T mat.Float](x *graph.Node[T]) *graph.Node[T]  { return Activate(x, ActivationSoftplus) }
