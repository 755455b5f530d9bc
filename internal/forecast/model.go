package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-playground/validator/v10"

	"streamcast/pkg/contracts/domain"
)

// Tensor is a dense row-major tensor
type Tensor struct {
	Shape []int
	Data  []float64
}

// NewWindowTensor packs a window of feature rows into a (1, rows, features) tensor
func NewWindowTensor(rows [][]float64) Tensor {
	features := 0
	if len(rows) > 0 {
		features = len(rows[0])
	}
	data := make([]float64, 0, len(rows)*features)
	for _, r := range rows {
		data = append(data, r...)
	}
	return Tensor{Shape: []int{1, len(rows), features}, Data: data}
}

// Size returns the number of elements implied by the shape
func (t Tensor) Size() int {
	if len(t.Shape) == 0 {
		return 0
	}
	size := 1
	for _, d := range t.Shape {
		size *= d
	}
	return size
}

// Model is a quantile model: a scaled window tensor in, one log1p growth value per horizon out.
// Implementations must be safe for concurrent use.
type Model interface {
	Name() string
	Predict(ctx context.Context, input Tensor) ([]float64, error)
}

// Activation names supported by DenseModel layers
const (
	ActivationLinear  = "linear"
	ActivationReLU    = "relu"
	ActivationTanh    = "tanh"
	ActivationSigmoid = "sigmoid"
)

// ModelArtifact is the on-disk description of a dense feed-forward network
type ModelArtifact struct {
	Name       string       `json:"name" validate:"required"`
	Quantile   string       `json:"quantile" validate:"omitempty,oneof=P10 P50 P90"`
	InputShape []int        `json:"input_shape" validate:"len=2,dive,gt=0"`
	Layers     []DenseLayer `json:"layers" validate:"min=1,dive"`
}

// DenseLayer is one fully connected layer. Weights are laid out [inputs][units].
type DenseLayer struct {
	Weights    [][]float64 `json:"weights" validate:"min=1"`
	Bias       []float64   `json:"bias" validate:"min=1"`
	Activation string      `json:"activation" validate:"omitempty,oneof=linear relu tanh sigmoid"`
}

// DenseModel evaluates a ModelArtifact. It holds no mutable state.
type DenseModel struct {
	artifact ModelArtifact
	inputs   int
}

// NewDenseModel validates the artifact and checks that layer dimensions chain
// from the input shape to one output per horizon.
func NewDenseModel(artifact ModelArtifact) (*DenseModel, error) {
	if err := validator.New().Struct(artifact); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}

	inputs := artifact.InputShape[0] * artifact.InputShape[1]
	width := inputs
	for i, layer := range artifact.Layers {
		if len(layer.Weights) != width {
			return nil, &ShapeError{What: fmt.Sprintf("layer %d inputs", i), Want: width, Got: len(layer.Weights)}
		}
		units := len(layer.Bias)
		for _, w := range layer.Weights {
			if len(w) != units {
				return nil, &ShapeError{What: fmt.Sprintf("layer %d units", i), Want: units, Got: len(w)}
			}
		}
		width = units
	}
	if width != len(domain.Horizons) {
		return nil, &ShapeError{What: "model outputs", Want: len(domain.Horizons), Got: width}
	}

	return &DenseModel{artifact: artifact, inputs: inputs}, nil
}

// ParseModel decodes and validates a JSON model artifact
func ParseModel(r io.Reader) (*DenseModel, error) {
	var artifact ModelArtifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return NewDenseModel(artifact)
}

// LoadModel reads a JSON model artifact from disk
func LoadModel(path string) (*DenseModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseModel(f)
}

// Name returns the artifact name
func (m *DenseModel) Name() string {
	return m.artifact.Name
}

// InputShape returns the (sequence, features) shape the model expects
func (m *DenseModel) InputShape() []int {
	return append([]int(nil), m.artifact.InputShape...)
}

// Predict runs a forward pass over a (1, sequence, features) tensor
func (m *DenseModel) Predict(ctx context.Context, input Tensor) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(input.Data) != m.inputs || input.Size() != m.inputs {
		return nil, &ShapeError{What: "model input", Want: m.inputs, Got: len(input.Data)}
	}

	activations := input.Data
	for _, layer := range m.artifact.Layers {
		next := append([]float64(nil), layer.Bias...)
		for i, x := range activations {
			for j, w := range layer.Weights[i] {
				next[j] += x * w
			}
		}
		activate(layer.Activation, next)
		activations = next
	}

	return activations, nil
}

func activate(name string, values []float64) {
	switch name {
	case ActivationReLU:
		for i, v := range values {
			if v < 0 {
				values[i] = 0
			}
		}
	case ActivationTanh:
		for i, v := range values {
			values[i] = math.Tanh(v)
		}
	case ActivationSigmoid:
		for i, v := range values {
			values[i] = 1 / (1 + math.Exp(-v))
		}
	}
}

// FuncModel adapts a plain function to the Model interface
type FuncModel struct {
	ModelName string
	Fn        func(input Tensor) []float64
}

// Name returns the model name
func (f FuncModel) Name() string { return f.ModelName }

// Predict calls the wrapped function
func (f FuncModel) Predict(ctx context.Context, input Tensor) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.Fn(input), nil
}
