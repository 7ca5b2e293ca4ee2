package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixPlan       = "plan"
	PrefixScene      = "scene"
	PrefixLayer      = "layer"
	PrefixBed        = "bed"
	PrefixPath       = "path"
	PrefixLabel      = "label"
	PrefixGuide      = "guide"
	PrefixImage      = "img"
	PrefixPlant      = "plant"
	PrefixIrrigation = "irr"
	PrefixStructure  = "struct"
	PrefixCompost    = "compost"
	PrefixAsset      = "asset"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewPlanID() string  { return New(PrefixPlan) }
func NewSceneID() string { return New(PrefixScene) }
func NewLayerID() string { return New(PrefixLayer) }
func NewAssetID() string { return New(PrefixAsset) }

// Prefix returns the prefix of a well-formed id, or "" if id is not a typeid.
func Prefix(id string) string {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return ""
	}
	return parsed.Prefix()
}

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
