package cifti

import "errors"

// Sentinel errors returned by the cifti package and by callers that validate
// against its index maps.
var (
	// ErrUnsupportedAxis indicates the selected direction does not carry brainordinates.
	ErrUnsupportedAxis = errors.New("cifti: specified direction does not contain brainordinates")

	// ErrIncompatibleBrainordinateSpace indicates an ROI whose brain models differ from the input's.
	ErrIncompatibleBrainordinateSpace = errors.New("cifti: roi has different brainordinate space than input")

	// ErrMissingRequiredSurface indicates a surface structure is present but no surface was given for it.
	ErrMissingRequiredSurface = errors.New("cifti: surface required but not provided")

	// ErrSurfaceVertexCountMismatch indicates a surface whose vertex count differs from the brain model.
	ErrSurfaceVertexCountMismatch = errors.New("cifti: surface has the wrong number of vertices")

	// ErrUnrecognizedDirection indicates a direction token other than ROW or COLUMN.
	ErrUnrecognizedDirection = errors.New("cifti: incorrect string for direction, use ROW or COLUMN")

	// ErrInvalidIndexMap indicates an index map that breaks the segment layout rules.
	ErrInvalidIndexMap = errors.New("cifti: invalid index map")

	// ErrStructureNotFound indicates a structure that is not present along the requested direction.
	ErrStructureNotFound = errors.New("cifti: structure not found")

	// ErrComponentShape indicates a component whose shape does not match the segment it is placed into.
	ErrComponentShape = errors.New("cifti: component shape does not match brain model")
)
