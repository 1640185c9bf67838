package config

import (
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/beaconbot/utils"
)

// Section names one collaborator of the robot.
type Section string

// The collaborator sections.
const (
	SectionActuator  Section = "actuator"
	SectionCapture   Section = "capture"
	SectionFrames    Section = "frames"
	SectionDisplay   Section = "display"
	SectionIndicator Section = "indicator"
)

// SimModel is the model name of the simulated capture and frame sources.
const SimModel = "sim"

// Component selects the model of a collaborator and carries its model-specific attributes.
type Component struct {
	Model      string                 `yaml:"model"`
	Attributes map[string]interface{} `yaml:"attributes"`

	// ConvertedAttributes holds the typed attributes once the config is validated.
	ConvertedAttributes interface{} `yaml:"-"`
}

// A Validator validates converted attributes. The path names the config section.
type Validator interface {
	Validate(path string) error
}

// An AttributeConverter returns a pointer to an empty attributes struct for a model. Fields are
// matched by their json tag.
type AttributeConverter func() Validator

type modelKey struct {
	section Section
	model   string
}

var (
	registryMu sync.RWMutex
	// models without attributes register a nil converter
	registry = map[modelKey]AttributeConverter{}
)

// RegisterModel makes a model available for a section. conv may be nil for models that take no
// attributes.
func RegisterModel(section Section, model string, conv AttributeConverter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := modelKey{section, model}
	if _, ok := registry[key]; ok {
		panic(errors.Errorf("%s model %q already registered", section, model))
	}
	registry[key] = conv
}

func lookupModel(section Section, model string) (AttributeConverter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	conv, ok := registry[modelKey{section, model}]
	return conv, ok
}

// convert decodes the attributes into the model's typed struct and validates them.
func (c *Component) convert(section Section) error {
	path := string(section)
	if c.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	conv, ok := lookupModel(section, c.Model)
	if !ok {
		return utils.NewConfigValidationError(path, errors.Errorf("unknown model %q", c.Model))
	}
	if conv == nil {
		c.ConvertedAttributes = nil
		return nil
	}
	attrs := conv()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: attrs})
	if err != nil {
		return err
	}
	if err := decoder.Decode(c.Attributes); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if err := attrs.Validate(path); err != nil {
		return err
	}
	c.ConvertedAttributes = attrs
	return nil
}
