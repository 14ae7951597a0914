package sociograph

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/brunobiangulo/sociograph/community"
	"github.com/brunobiangulo/sociograph/errs"
	"github.com/brunobiangulo/sociograph/render"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// AlgorithmConfig names a community detection algorithm and its parameters.
type AlgorithmConfig struct {
	Name             string `json:"name" yaml:"name"`
	community.Params `yaml:",inline"`
}

// Request is the explicit per-call configuration of one pipeline run.
type Request struct {
	// TopNeighbourSeedCount restricts the graph to the k highest-degree
	// actors and their neighbours. 0 keeps the whole graph.
	TopNeighbourSeedCount int `json:"top_neighbour_seed_count" yaml:"top_neighbour_seed_count" validate:"gte=0"`

	Algorithm AlgorithmConfig `json:"algorithm" yaml:"algorithm"`

	NodeSizeMetric render.Metric `json:"node_size_metric" yaml:"node_size_metric"`
	MinNodeSize    float64       `json:"min_node_size" yaml:"min_node_size" validate:"gte=0"`
	MaxNodeSize    float64       `json:"max_node_size" yaml:"max_node_size" validate:"gtfield=MinNodeSize"`

	// SampleRows analyses a seeded random sample of the input rows.
	// 0 uses every row.
	SampleRows int    `json:"sample_rows" yaml:"sample_rows" validate:"gte=0"`
	SampleSeed uint64 `json:"sample_seed" yaml:"sample_seed"`

	// Layout adds MDS positions to the render graph.
	Layout bool `json:"layout" yaml:"layout"`
}

// DefaultRequest returns Louvain with degree-sized nodes between 10 and 40.
func DefaultRequest() Request {
	return Request{
		Algorithm:      AlgorithmConfig{Name: community.NameLouvain},
		NodeSizeMetric: render.Degree,
		MinNodeSize:    render.DefaultMinSize,
		MaxNodeSize:    render.DefaultMaxSize,
	}
}

// Validate checks every field and resolves the algorithm without running
// anything.
func (r Request) Validate() error {
	_, err := r.compile()
	return err
}

// withDefaults fills the algorithm and each size bound from def when it
// is unset (zero).
func (r Request) withDefaults(def Request) Request {
	if r.Algorithm.Name == "" {
		r.Algorithm.Name = def.Algorithm.Name
		if r.Algorithm.Params == (community.Params{}) {
			r.Algorithm.Params = def.Algorithm.Params
		}
	}
	if r.MinNodeSize == 0 {
		r.MinNodeSize = def.MinNodeSize
	}
	if r.MaxNodeSize == 0 {
		r.MaxNodeSize = def.MaxNodeSize
	}
	return r
}

// compile validates r and resolves its algorithm.
func (r Request) compile() (community.Algorithm, error) {
	if err := validate.Struct(r); err != nil {
		return nil, fromValidation(err)
	}
	if _, err := r.NodeSizeMetric.MarshalText(); err != nil {
		return nil, err
	}
	return community.Parse(r.Algorithm.Name, r.Algorithm.Params)
}

// fromValidation converts the first validator failure into an
// InvalidParameterError.
func fromValidation(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return errs.Invalid("request", nil, err.Error())
	}
	fe := ve[0]
	reason := fe.Tag()
	switch fe.Tag() {
	case "gte":
		reason = "must be >= " + fe.Param()
	case "gtfield":
		reason = fmt.Sprintf("must be greater than %s", fe.Param())
	}
	return errs.Invalid(fe.Field(), fe.Value(), reason)
}
