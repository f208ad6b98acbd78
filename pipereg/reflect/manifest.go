// Package reflect parses a compiled shader's reflection manifest: a small
// line-oriented annotation format, modeled on the WGSL `@oxy:` comment
// annotations the shader pre-processor recognizes, that the asset-compiler
// tool emits alongside each shader's bytecode to describe its descriptor-set
// bindings.
//
// A manifest line has the form:
//
//	@binding <set> <binding> <type> <count> <stage>[,<stage>...]
//
// Example:
//
//	@binding 0 0 uniform_buffer 1 vertex,fragment
//	@binding 1 0 combined_image_sampler 1 fragment
package reflect

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/oxy-engine/rendercore/pipereg"
)

const bindingPrefix = "@binding"

var validBindingTypes = map[string]pipereg.BindingType{
	"sampler":                 pipereg.BindingSampler,
	"combined_image_sampler":  pipereg.BindingCombinedImageSampler,
	"sampled_image":           pipereg.BindingSampledImage,
	"storage_image":           pipereg.BindingStorageImage,
	"uniform_texel_buffer":    pipereg.BindingUniformTexelBuffer,
	"storage_texel_buffer":    pipereg.BindingStorageTexelBuffer,
	"uniform_buffer":          pipereg.BindingUniformBuffer,
	"storage_buffer":          pipereg.BindingStorageBuffer,
	"uniform_buffer_dynamic":  pipereg.BindingUniformBufferDynamic,
	"storage_buffer_dynamic":  pipereg.BindingStorageBufferDynamic,
	"input_attachment":        pipereg.BindingInputAttachment,
}

var validStages = []string{"vertex", "fragment", "compute"}

// ParseManifest parses a full reflection manifest into a pipereg.Reflection.
// Blank lines and lines without the @binding prefix are ignored, matching
// the tolerant line-at-a-time scanning the WGSL annotation parser uses.
func ParseManifest(src string) (pipereg.Reflection, error) {
	var refl pipereg.Reflection

	for i, line := range strings.Split(src, "\n") {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, bindingPrefix) {
			continue
		}

		b, err := parseBindingLine(trimmed, lineNum)
		if err != nil {
			return pipereg.Reflection{}, err
		}
		refl.Bindings = append(refl.Bindings, b)
	}

	return refl, nil
}

func parseBindingLine(line string, lineNum int) (pipereg.Binding, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return pipereg.Binding{}, fmt.Errorf("manifest line %d: @binding requires 5 arguments (set, binding, type, count, stages), got %d", lineNum, len(fields)-1)
	}

	set, err := strconv.Atoi(fields[1])
	if err != nil {
		return pipereg.Binding{}, fmt.Errorf("manifest line %d: invalid set %q: %w", lineNum, fields[1], err)
	}
	binding, err := strconv.Atoi(fields[2])
	if err != nil {
		return pipereg.Binding{}, fmt.Errorf("manifest line %d: invalid binding %q: %w", lineNum, fields[2], err)
	}
	bindingType, ok := validBindingTypes[fields[3]]
	if !ok {
		return pipereg.Binding{}, fmt.Errorf("manifest line %d: unknown binding type %q", lineNum, fields[3])
	}
	count, err := strconv.Atoi(fields[4])
	if err != nil {
		return pipereg.Binding{}, fmt.Errorf("manifest line %d: invalid count %q: %w", lineNum, fields[4], err)
	}

	visibility, err := parseStageList(fields[5], lineNum)
	if err != nil {
		return pipereg.Binding{}, err
	}

	return pipereg.Binding{
		Set:        set,
		Binding:    binding,
		Type:       bindingType,
		Count:      count,
		Visibility: visibility,
	}, nil
}

func parseStageList(field string, lineNum int) (pipereg.StageVisibility, error) {
	var visibility pipereg.StageVisibility
	for _, stage := range strings.Split(field, ",") {
		if !slices.Contains(validStages, stage) {
			return 0, fmt.Errorf("manifest line %d: unknown stage %q", lineNum, stage)
		}
		switch stage {
		case "vertex":
			visibility |= pipereg.StageVisibilityVertex
		case "fragment":
			visibility |= pipereg.StageVisibilityFragment
		case "compute":
			visibility |= pipereg.StageVisibilityCompute
		}
	}
	if visibility == 0 {
		return 0, fmt.Errorf("manifest line %d: @binding must name at least one stage", lineNum)
	}
	return visibility, nil
}
