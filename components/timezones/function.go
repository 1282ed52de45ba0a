package timezones

import (
	"context"
	"strings"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/functions"
	"github.com/goliatone/go-formkit/pkg/model"
)

// FunctionName is the compute function id registered by Register.
const FunctionName = "timezones"

// Options turns zones into select options. The label replaces underscores
// with spaces: "America/New_York" becomes "America/New York".
func Options(zones []string) []model.Option {
	out := make([]model.Option, 0, len(zones))
	for _, zone := range zones {
		out = append(out, model.Option{Value: zone, Label: strings.ReplaceAll(zone, "_", " ")})
	}
	return out
}

// Compute returns a compute function serving zones. A nil list uses the
// built-in zones.
func Compute(zones []string) functions.ComputeFunc {
	if zones == nil {
		zones = DefaultZones()
	}
	options := Options(zones)
	return func(context.Context, formstate.Getter, formstate.Setter) (any, error) {
		return model.CloneOptions(options), nil
	}
}

// Register adds the timezones compute function to reg.
func Register(reg *functions.Registry, zones []string) error {
	return reg.RegisterCompute(FunctionName, Compute(zones))
}
